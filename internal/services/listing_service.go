package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/garbage_complaint/internal/repositories"
	"github.com/garbage_complaint/pkg/media"
)

// DisplayUnit is one rendered complaint in the listing.
type DisplayUnit struct {
	ID              int64   `json:"id"`
	ComplaintNumber string  `json:"complaintNumber"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Timestamp       string  `json:"timestamp"`
	Header          string  `json:"header"`
	Caption         string  `json:"caption"`
	ImagePath       string  `json:"imagePath"`
	ImageURL        string  `json:"imageUrl"`
}

// ExportSheet is the worksheet name used by ExportXLSX.
const ExportSheet = "Complaints"

var exportHeaders = []string{"Complaint Number", "Address", "Latitude", "Longitude", "Timestamp", "Image Path"}

// ListingService 定义了投诉列表展示服务的接口
type ListingService interface {
	RenderAll() ([]DisplayUnit, error)
	ExportXLSX(w io.Writer) error
}

type listingService struct {
	repo repositories.ComplaintRepository
}

// NewListingService 创建一个新的 listingService 实例
func NewListingService(repo repositories.ComplaintRepository) ListingService {
	return &listingService{repo: repo}
}

// RenderAll re-reads every complaint on each call; nothing is cached.
func (s *listingService) RenderAll() ([]DisplayUnit, error) {
	complaints, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}
	units := make([]DisplayUnit, 0, len(complaints))
	for _, c := range complaints {
		lat, lng := FormatCoordinate(c.Latitude), FormatCoordinate(c.Longitude)
		units = append(units, DisplayUnit{
			ID:              c.ID,
			ComplaintNumber: c.ComplaintNumber,
			Address:         c.Address,
			Latitude:        c.Latitude,
			Longitude:       c.Longitude,
			Timestamp:       c.Timestamp,
			Header: fmt.Sprintf("Complaint Number %s  at %s, Latitude %s, Longitude %s on %s",
				c.ComplaintNumber, c.Address, lat, lng, c.Timestamp),
			Caption:   fmt.Sprintf("Location: Latitude %s, Longitude %s", lat, lng),
			ImagePath: c.ImagePath,
			ImageURL:  media.PublicURL(c.ImagePath),
		})
	}
	return units, nil
}

// ExportXLSX writes the listing as a single-sheet workbook, one row per complaint.
func (s *listingService) ExportXLSX(w io.Writer) error {
	units, err := s.RenderAll()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, toCells(exportHeaders)); err != nil {
		return err
	}
	for i, u := range units {
		row := []interface{}{u.ComplaintNumber, u.Address, u.Latitude, u.Longitude, u.Timestamp, u.ImagePath}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
