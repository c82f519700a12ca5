package services_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garbage_complaint/internal/models"
	"github.com/garbage_complaint/internal/repositories"
	"github.com/garbage_complaint/internal/services"
)

func TestRenderAllEmpty(t *testing.T) {
	repo := new(MockComplaintRepository)
	repo.On("ListAll").Return([]models.Complaint{}, nil)

	units, err := services.NewListingService(repo).RenderAll()

	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestRenderAllBuildsHeaderAndCaption(t *testing.T) {
	repo := new(MockComplaintRepository)
	repo.On("ListAll").Return([]models.Complaint{{
		ID:              3,
		ComplaintNumber: "20240309140507",
		Address:         "Near Clock Tower",
		Latitude:        30.3165,
		Longitude:       78.0322,
		ImagePath:       "images/20240309140507_bin1.jpg",
		Timestamp:       "20240309140507",
	}}, nil)

	units, err := services.NewListingService(repo).RenderAll()

	require.NoError(t, err)
	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, "Complaint Number 20240309140507  at Near Clock Tower, Latitude 30.3165, Longitude 78.0322 on 20240309140507", u.Header)
	assert.Equal(t, "Location: Latitude 30.3165, Longitude 78.0322", u.Caption)
	assert.Equal(t, "images/20240309140507_bin1.jpg", u.ImagePath)
	assert.Equal(t, "/images/20240309140507_bin1.jpg", u.ImageURL)
	assert.Equal(t, int64(3), u.ID)
}

func TestRenderAllRequeriesEveryCall(t *testing.T) {
	repo := new(MockComplaintRepository)
	repo.On("ListAll").Return([]models.Complaint{}, nil).Once()
	repo.On("ListAll").Return([]models.Complaint{{ID: 1, ImagePath: "images/a.jpg"}}, nil).Once()
	listing := services.NewListingService(repo)

	first, err := listing.RenderAll()
	require.NoError(t, err)
	second, err := listing.RenderAll()
	require.NoError(t, err)

	assert.Len(t, first, 0)
	assert.Len(t, second, 1)
	repo.AssertNumberOfCalls(t, "ListAll", 2)
}

func TestRenderAllPropagatesStorageError(t *testing.T) {
	repo := new(MockComplaintRepository)
	repo.On("ListAll").Return(nil, &repositories.StorageError{Op: "list", Err: errors.New("disk I/O error")})

	_, err := services.NewListingService(repo).RenderAll()

	var storageErr *repositories.StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestRenderAllAfterSubmit(t *testing.T) {
	svc, repo, _ := newStack(t)
	listing := services.NewListingService(repo)

	units, err := listing.RenderAll()
	require.NoError(t, err)
	assert.Empty(t, units)

	_, err = svc.Submit(validInput(t))
	require.NoError(t, err)

	units, err = listing.RenderAll()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Contains(t, units[0].Header, "Near Clock Tower")
}

func TestExportXLSX(t *testing.T) {
	repo := new(MockComplaintRepository)
	repo.On("ListAll").Return([]models.Complaint{
		{ID: 1, ComplaintNumber: "20240309140507", Address: "Near Clock Tower", Latitude: 30.3165, Longitude: 78.0322, Timestamp: "20240309140507", ImagePath: "images/20240309140507_bin1.jpg"},
		{ID: 2, ComplaintNumber: "20240309140508", Address: "Bus stand", Latitude: 30.32, Longitude: 78.04, Timestamp: "20240309140508", ImagePath: "images/20240309140508_b.png"},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, services.NewListingService(repo).ExportXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(services.ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Complaint Number", "Address", "Latitude", "Longitude", "Timestamp", "Image Path"}, rows[0])
	assert.Equal(t, "Near Clock Tower", rows[1][1])
	assert.Equal(t, "30.3165", rows[1][2])
	assert.Equal(t, "images/20240309140508_b.png", rows[2][5])
}
