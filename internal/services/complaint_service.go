package services

import (
	"bytes"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/garbage_complaint/internal/models"
	"github.com/garbage_complaint/internal/repositories"
	"github.com/garbage_complaint/pkg/utils"
)

// ValidationError is a user-correctable rejection. Nothing is written when one is returned.
type ValidationError struct {
	Reason string
	Hint   string // message shown next to the form
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	ErrMissingRequiredField = &ValidationError{
		Reason: "missing required field",
		Hint:   "Please fill all the fields, upload an image, and select a location on the map.",
	}
	ErrInvalidPhoneNumber = &ValidationError{
		Reason: utils.ErrInvalidPhoneNumberFormat.Error(),
		Hint:   "Please enter a valid 10-digit phone number.",
	}
	ErrUnsupportedImage = &ValidationError{
		Reason: utils.ErrUnsupportedImageType.Error(),
		Hint:   "Please upload a JPG, JPEG or PNG image.",
	}
	ErrImageDimensions = &ValidationError{
		Reason: "image dimensions too large",
		Hint:   "Please upload a smaller photo.",
	}
)

// MaxImagePixels caps width*height of an upload before it is decoded.
const MaxImagePixels = 50_000_000

// SuccessMessage is reported after a complaint has been stored.
const SuccessMessage = "Complaint submitted successfully!"

// WorkflowState is the phase the submission workflow is in.
type WorkflowState int32

const (
	StateIdle WorkflowState = iota
	StateValidating
	StatePersisting
)

func (s WorkflowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// Coordinate is a single map click.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ImageUpload carries the uploaded file as received.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// SubmissionInput holds the raw form values. Image and Location are nil when not supplied.
type SubmissionInput struct {
	Name        string
	Description string
	Address     string
	PhoneNumber string
	Image       *ImageUpload
	Location    *Coordinate
}

// SubmissionResult describes a stored complaint.
type SubmissionResult struct {
	Complaint models.Complaint `json:"complaint"`
}

// InfoMessages are the follow-up lines shown under the success message.
func (r *SubmissionResult) InfoMessages() []string {
	return []string{
		"Image saved at: " + r.Complaint.ImagePath,
		fmt.Sprintf("Selected Location: Latitude %s, Longitude %s",
			FormatCoordinate(r.Complaint.Latitude), FormatCoordinate(r.Complaint.Longitude)),
	}
}

// ImageStore persists uploaded image bytes and returns the stored relative path.
type ImageStore interface {
	Save(timestamp, filename string, data []byte) (string, error)
}

// ComplaintService 定义了投诉提交服务的接口
type ComplaintService interface {
	Submit(input SubmissionInput) (*SubmissionResult, error)
	State() WorkflowState
}

// Option customises a complaint service.
type Option func(*complaintService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *complaintService) {
		s.now = now
	}
}

// complaintService 是 ComplaintService 的实现
type complaintService struct {
	mu    sync.Mutex // one submission at a time
	state atomic.Int32
	repo  repositories.ComplaintRepository
	media ImageStore
	now   func() time.Time
	log   *zap.Logger
}

// NewComplaintService 创建一个新的 complaintService 实例
func NewComplaintService(repo repositories.ComplaintRepository, media ImageStore, log *zap.Logger, opts ...Option) ComplaintService {
	s := &complaintService{
		repo:  repo,
		media: media,
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *complaintService) State() WorkflowState {
	return WorkflowState(s.state.Load())
}

func (s *complaintService) setState(state WorkflowState) {
	s.state.Store(int32(state))
}

// Submit validates the input, saves the image, then inserts the complaint.
// If the insert fails after the image was written, the file stays on disk.
func (s *complaintService) Submit(input SubmissionInput) (*SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.setState(StateIdle)

	s.setState(StateValidating)
	if err := ValidateSubmission(input); err != nil {
		s.log.Info("complaint rejected", zap.String("reason", err.Error()))
		return nil, err
	}

	s.setState(StatePersisting)
	timestamp := s.now().Format(models.TimestampLayout)

	imagePath, err := s.media.Save(timestamp, input.Image.Filename, input.Image.Data)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	complaint := &models.Complaint{
		ComplaintNumber: timestamp,
		Name:            input.Name,
		Latitude:        input.Location.Lat,
		Longitude:       input.Location.Lng,
		Description:     input.Description,
		Address:         input.Address,
		PhoneNumber:     input.PhoneNumber,
		ImagePath:       imagePath,
		Timestamp:       timestamp,
	}
	id, err := s.repo.Insert(complaint)
	if err != nil {
		s.log.Warn("complaint insert failed, image left in place",
			zap.String("image_path", imagePath), zap.Error(err))
		return nil, fmt.Errorf("insert complaint: %w", err)
	}
	complaint.ID = id

	s.log.Info("complaint stored",
		zap.Int64("id", id),
		zap.String("complaint_number", complaint.ComplaintNumber),
		zap.String("image_path", imagePath))
	return &SubmissionResult{Complaint: *complaint}, nil
}

// ValidateSubmission applies the form rules in order and returns the first failure.
func ValidateSubmission(input SubmissionInput) error {
	if strings.TrimSpace(input.Name) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		input.Image == nil || input.Image.Filename == "" || len(input.Image.Data) == 0 ||
		input.Location == nil {
		return ErrMissingRequiredField
	}
	if err := utils.ValidatePhoneNumber(input.PhoneNumber); err != nil {
		return ErrInvalidPhoneNumber
	}
	if err := utils.ValidateImageFilename(input.Image.Filename); err != nil {
		return ErrUnsupportedImage
	}
	return checkImage(input.Image.Data)
}

// checkImage rejects oversized dimensions from the header, before any pixels are decoded.
func checkImage(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ErrUnsupportedImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnsupportedImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return ErrImageDimensions
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return ErrUnsupportedImage
	}
	return nil
}

// FormatCoordinate prints degrees with the shortest exact representation.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
