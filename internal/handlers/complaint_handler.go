package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garbage_complaint/internal/metrics"
	"github.com/garbage_complaint/internal/middleware"
	"github.com/garbage_complaint/internal/repositories"
	"github.com/garbage_complaint/internal/services"
	"github.com/garbage_complaint/pkg/media"
	"github.com/garbage_complaint/pkg/utils"
)

// Flash keys used between POST /complaints and the next GET /.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// IndexTemplate is the name of the embedded page template.
const IndexTemplate = "index.tmpl"

// form fields kept below this size are held in memory, larger ones spill to temp files
const multipartMemory = 8 << 20

// MapSettings is the initial map view.
type MapSettings struct {
	Lat  float64
	Lng  float64
	Zoom int
}

// Counter reports the number of stored complaints.
type Counter interface {
	Count() (int64, error)
}

// ComplaintHandler 封装了投诉相关的 HTTP 处理逻辑
type ComplaintHandler struct {
	complaints services.ComplaintService
	listing    services.ListingService
	counter    Counter
	metrics    *metrics.Metrics
	log        *zap.Logger

	mapSettings    MapSettings
	maxUploadBytes int64
	errTooLarge    *services.ValidationError
}

// NewComplaintHandler 创建一个新的 ComplaintHandler 实例
func NewComplaintHandler(
	complaints services.ComplaintService,
	listing services.ListingService,
	counter Counter,
	m *metrics.Metrics,
	log *zap.Logger,
	mapSettings MapSettings,
	maxUploadMB int,
) *ComplaintHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ComplaintHandler{
		complaints:     complaints,
		listing:        listing,
		counter:        counter,
		metrics:        m,
		log:            log,
		mapSettings:    mapSettings,
		maxUploadBytes: int64(maxUploadMB) << 20,
		errTooLarge: &services.ValidationError{
			Reason: "image too large",
			Hint:   fmt.Sprintf("Please upload an image smaller than %d MB.", maxUploadMB),
		},
	}
}

// CreateComplaintResponse is returned by POST /api/v1/complaints.
type CreateComplaintResponse struct {
	ID              int64    `json:"id"`
	ComplaintNumber string   `json:"complaintNumber"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	ImagePath       string   `json:"imagePath"`
	ImageURL        string   `json:"imageUrl"`
	Timestamp       string   `json:"timestamp"`
	Messages        []string `json:"messages"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Complaints int64  `json:"complaints"`
}

type flashMessages struct {
	Success []string
	Info    []string
	Error   []string
}

// submitFailure is what a failed submission looks like to the client.
type submitFailure struct {
	status  int
	reason  string
	message string
}

// Index renders the form, the map and every stored complaint.
func (h *ComplaintHandler) Index(c *gin.Context) {
	flashes := h.popFlashes(c)

	status := http.StatusOK
	units, err := h.listing.RenderAll()
	if err != nil {
		h.log.Error("list complaints failed",
			zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		flashes.Error = append(flashes.Error, "Could not load complaints. Please refresh the page.")
		status = http.StatusInternalServerError
		units = nil
	} else {
		h.metrics.RecordListing()
	}

	c.HTML(status, IndexTemplate, gin.H{
		"Map":        h.mapSettings,
		"Flashes":    flashes,
		"Complaints": units,
	})
}

// SubmitForm handles the HTML form post and redirects back to the page.
func (h *ComplaintHandler) SubmitForm(c *gin.Context) {
	session := sessions.Default(c)

	result, failure := h.submit(c)
	if failure != nil {
		session.AddFlash(failure.message, FlashError)
	} else {
		session.AddFlash(services.SuccessMessage, FlashSuccess)
		for _, msg := range result.InfoMessages() {
			session.AddFlash(msg, FlashInfo)
		}
	}
	if err := session.Save(); err != nil {
		h.log.Warn("save flash messages failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// CreateComplaint godoc
// @Summary 提交一个投诉
// @Description Same rules as the HTML form: name, description, image and a map location are required, the phone number must be 10 digits and the image must be JPG, JPEG or PNG.
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Your name"
// @Param description formData string true "What is wrong"
// @Param address formData string false "Address or landmark"
// @Param phone_number formData string true "10-digit phone number"
// @Param lat formData number true "Latitude"
// @Param lng formData number true "Longitude"
// @Param image formData file true "Photo of the garbage"
// @Success 201 {object} utils.SuccessResponse{data=CreateComplaintResponse} "投诉已保存"
// @Failure 400 {object} utils.APIErrorResponse "校验失败"
// @Failure 413 {object} utils.APIErrorResponse "图片过大"
// @Failure 500 {object} utils.APIErrorResponse "图片或数据库写入失败"
// @Router /complaints [post]
func (h *ComplaintHandler) CreateComplaint(c *gin.Context) {
	result, failure := h.submit(c)
	if failure != nil {
		if failure.status == http.StatusBadRequest {
			utils.RespondValidationError(c, failure.reason, failure.message)
		} else {
			utils.RespondAPIError(c, failure.status, failure.reason, failure.message)
		}
		return
	}

	complaint := result.Complaint
	utils.RespondSuccess(c, http.StatusCreated, CreateComplaintResponse{
		ID:              complaint.ID,
		ComplaintNumber: complaint.ComplaintNumber,
		Latitude:        complaint.Latitude,
		Longitude:       complaint.Longitude,
		ImagePath:       complaint.ImagePath,
		ImageURL:        media.PublicURL(complaint.ImagePath),
		Timestamp:       complaint.Timestamp,
		Messages:        result.InfoMessages(),
	}, services.SuccessMessage)
}

// ListComplaints godoc
// @Summary 获取投诉列表
// @Description Every stored complaint in storage order. Names and phone numbers are not included.
// @Tags Complaints
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]services.DisplayUnit} "投诉列表"
// @Failure 500 {object} utils.APIErrorResponse "服务器内部错误"
// @Router /complaints [get]
func (h *ComplaintHandler) ListComplaints(c *gin.Context) {
	units, err := h.listing.RenderAll()
	if err != nil {
		h.log.Error("list complaints failed",
			zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		utils.RespondInternalServerError(c, "failed to list complaints")
		return
	}
	h.metrics.RecordListing()
	utils.RespondSuccess(c, http.StatusOK, units, "")
}

// ExportComplaints godoc
// @Summary 导出投诉列表
// @Description The listing as an XLSX workbook with one row per complaint.
// @Tags Complaints
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "complaints.xlsx"
// @Failure 500 {object} utils.APIErrorResponse "服务器内部错误"
// @Router /complaints/export [get]
func (h *ComplaintHandler) ExportComplaints(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.listing.ExportXLSX(&buf); err != nil {
		h.log.Error("export complaints failed",
			zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		utils.RespondInternalServerError(c, "failed to export complaints")
		return
	}
	h.metrics.RecordListing()
	c.Header("Content-Disposition", `attachment; filename="complaints.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Health reports whether the database answers and how many complaints it holds.
func (h *ComplaintHandler) Health(c *gin.Context) {
	count, err := h.counter.Count()
	if err != nil {
		h.log.Error("health check failed", zap.Error(err))
		utils.RespondAPIError(c, http.StatusServiceUnavailable, "database unavailable", nil)
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Complaints: count})
}

// submit reads the multipart form, runs the workflow and records the outcome.
func (h *ComplaintHandler) submit(c *gin.Context) (*services.SubmissionResult, *submitFailure) {
	input, err := h.readSubmission(c)
	if err == nil {
		var result *services.SubmissionResult
		result, err = h.complaints.Submit(input)
		if err == nil {
			h.metrics.RecordSubmission(metrics.OutcomeAccepted, "")
			return result, nil
		}
	}
	return nil, h.classify(c, err)
}

func (h *ComplaintHandler) classify(c *gin.Context, err error) *submitFailure {
	requestID := middleware.GetRequestID(c)

	var validationErr *services.ValidationError
	var ioErr *media.IOError
	var storageErr *repositories.StorageError
	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordSubmission(metrics.OutcomeRejected, validationErr.Reason)
		status := http.StatusBadRequest
		if validationErr == h.errTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		return &submitFailure{status: status, reason: validationErr.Reason, message: validationErr.Hint}
	case errors.As(err, &ioErr):
		h.metrics.RecordSubmission(metrics.OutcomeIOError, "")
		h.log.Error("image write failed",
			zap.String("request_id", requestID), zap.String("path", ioErr.Path), zap.Error(err))
		return &submitFailure{
			status:  http.StatusInternalServerError,
			reason:  "failed to save image",
			message: "Could not save the uploaded image. Please try again.",
		}
	case errors.As(err, &storageErr):
		h.metrics.RecordSubmission(metrics.OutcomeStorageError, "")
		h.log.Error("complaint insert failed", zap.String("request_id", requestID), zap.Error(err))
		return &submitFailure{
			status:  http.StatusInternalServerError,
			reason:  "failed to store complaint",
			message: "Could not save the complaint. Please try again.",
		}
	default:
		h.metrics.RecordSubmission(metrics.OutcomeError, "")
		h.log.Error("complaint submission failed", zap.String("request_id", requestID), zap.Error(err))
		return &submitFailure{
			status:  http.StatusInternalServerError,
			reason:  "failed to submit complaint",
			message: "Something went wrong. Please try again.",
		}
	}
}

// readSubmission maps the multipart form onto a SubmissionInput. Missing or
// unparsable values are left empty so the workflow reports them.
func (h *ComplaintHandler) readSubmission(c *gin.Context) (services.SubmissionInput, error) {
	var input services.SubmissionInput

	// 1 MB of headroom for the text fields
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return input, h.errTooLarge
		}
		h.log.Info("malformed complaint form", zap.Error(err))
		return input, services.ErrMissingRequiredField
	}

	input.Name = c.PostForm("name")
	input.Description = c.PostForm("description")
	input.Address = c.PostForm("address")
	input.PhoneNumber = c.PostForm("phone_number")
	input.Location = parseCoordinate(c.PostForm("lat"), c.PostForm("lng"))

	fileHeader, err := c.FormFile("image")
	if err != nil {
		// no file: the workflow reports the missing field
		return input, nil
	}
	if fileHeader.Size > h.maxUploadBytes {
		return input, h.errTooLarge
	}
	file, err := fileHeader.Open()
	if err != nil {
		return input, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return input, fmt.Errorf("read upload: %w", err)
	}
	input.Image = &services.ImageUpload{Filename: fileHeader.Filename, Data: data}
	return input, nil
}

// parseCoordinate returns nil unless both values are finite numbers.
func parseCoordinate(latRaw, lngRaw string) *services.Coordinate {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return nil
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return nil
	}
	return &services.Coordinate{Lat: lat, Lng: lng}
}

func (h *ComplaintHandler) popFlashes(c *gin.Context) flashMessages {
	session := sessions.Default(c)
	flashes := flashMessages{
		Success: flashStrings(session.Flashes(FlashSuccess)),
		Info:    flashStrings(session.Flashes(FlashInfo)),
		Error:   flashStrings(session.Flashes(FlashError)),
	}
	if len(flashes.Success)+len(flashes.Info)+len(flashes.Error) > 0 {
		if err := session.Save(); err != nil {
			h.log.Warn("clear flash messages failed", zap.Error(err))
		}
	}
	return flashes
}

func flashStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
