package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrilearn/enrollment-sync/internal/enrollment"
	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
)

// EnrollmentService defines the facade operations the API exposes.
// Handlers never touch the record store or the sync queue directly.
type EnrollmentService interface {
	AddEnrollment(ctx context.Context, input enrollment.Input) (*models.EnrollmentRecord, error)
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	UpdateProgress(ctx context.Context, userID, courseID string, completedUnits []string, totalUnits int) (*models.EnrollmentRecord, error)
	MarkCertificateIssued(ctx context.Context, userID, courseID string) (*models.EnrollmentRecord, error)
	ListEnrollments(ctx context.Context, userID string) ([]*models.EnrollmentRecord, error)
	GetStats(ctx context.Context, userID string) (*models.EnrollmentStats, error)
	TriggerSync(ctx context.Context) (*models.SyncReport, error)
	QueueDepth(ctx context.Context) (int, error)
	RemoteStatus(ctx context.Context, userID, courseID string) (bool, error)
	RemoteEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error)
}

// ErrorResponse is the error body returned by all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler handles HTTP requests for the enrollment API
type Handler struct {
	service EnrollmentService
	logger  *logrus.Logger
}

// NewHandler creates a new API handler
func NewHandler(service EnrollmentService, logger *logrus.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// CreateEnrollment godoc
// @Summary Enroll a user in a course
// @Description Stores the enrollment locally and queues it for remote sync. Succeeds even with no network.
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body enrollment.Input true "Enrollment payload"
// @Success 201 {object} models.EnrollmentRecord
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /enrollments [post]
func (h *Handler) CreateEnrollment(c *gin.Context) {
	var input enrollment.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rec, err := h.service.AddEnrollment(c.Request.Context(), input)
	if err != nil {
		h.respondWithError(c, err, "Failed to create enrollment")
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// ListUserEnrollments godoc
// @Summary List a user's enrollments
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {array} models.EnrollmentRecord
// @Failure 500 {object} ErrorResponse
// @Router /users/{userID}/enrollments [get]
func (h *Handler) ListUserEnrollments(c *gin.Context) {
	records, err := h.service.ListEnrollments(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to list enrollments")
		return
	}
	if records == nil {
		records = []*models.EnrollmentRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// GetUserStats godoc
// @Summary Get a user's enrollment statistics
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} models.EnrollmentStats
// @Failure 500 {object} ErrorResponse
// @Router /users/{userID}/enrollments/stats [get]
func (h *Handler) GetUserStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to get enrollment stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetEnrollmentStatus godoc
// @Summary Check local enrollment status
// @Description Local truth is authoritative for access control; sync state is not consulted.
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path string true "Course ID"
// @Success 200 {object} map[string]bool
// @Failure 500 {object} ErrorResponse
// @Router /users/{userID}/enrollments/{courseID}/status [get]
func (h *Handler) GetEnrollmentStatus(c *gin.Context) {
	enrolled, err := h.service.IsEnrolled(c.Request.Context(), c.Param("userID"), c.Param("courseID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to check enrollment status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_enrolled": enrolled})
}

// GetRemoteEnrollmentStatus godoc
// @Summary Check enrollment status as known by the remote authorities
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path string true "Course ID"
// @Success 200 {object} map[string]bool
// @Failure 502 {object} ErrorResponse
// @Router /users/{userID}/enrollments/{courseID}/remote-status [get]
func (h *Handler) GetRemoteEnrollmentStatus(c *gin.Context) {
	enrolled, err := h.service.RemoteStatus(c.Request.Context(), c.Param("userID"), c.Param("courseID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to check remote enrollment status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_enrolled": enrolled})
}

// ListRemoteEnrollments godoc
// @Summary List a user's enrollments as known by the remote authorities
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {array} models.RemoteEnrollment
// @Failure 502 {object} ErrorResponse
// @Router /users/{userID}/enrollments/remote [get]
func (h *Handler) ListRemoteEnrollments(c *gin.Context) {
	enrollments, err := h.service.RemoteEnrollments(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to list remote enrollments")
		return
	}
	if enrollments == nil {
		enrollments = []models.RemoteEnrollment{}
	}

	c.JSON(http.StatusOK, enrollments)
}

// UpdateProgressRequest is the body for progress updates
type UpdateProgressRequest struct {
	CompletedUnits []string `json:"completed_units"`
	TotalUnits     int      `json:"total_units"`
}

// UpdateProgress godoc
// @Summary Update course progress
// @Description Recomputes the completion percentage and re-queues the record for sync.
// @Tags enrollments
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path string true "Course ID"
// @Param progress body UpdateProgressRequest true "Progress update"
// @Success 200 {object} models.EnrollmentRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{userID}/enrollments/{courseID}/progress [put]
func (h *Handler) UpdateProgress(c *gin.Context) {
	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rec, err := h.service.UpdateProgress(c.Request.Context(),
		c.Param("userID"), c.Param("courseID"), req.CompletedUnits, req.TotalUnits)
	if err != nil {
		h.respondWithError(c, err, "Failed to update progress")
		return
	}

	c.JSON(http.StatusOK, rec)
}

// IssueCertificate godoc
// @Summary Mark a course certificate as issued
// @Description Requires 100% progress. Issuing is permanent and idempotent.
// @Tags enrollments
// @Produce json
// @Param userID path string true "User ID"
// @Param courseID path string true "Course ID"
// @Success 200 {object} models.EnrollmentRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{userID}/enrollments/{courseID}/certificate [post]
func (h *Handler) IssueCertificate(c *gin.Context) {
	rec, err := h.service.MarkCertificateIssued(c.Request.Context(), c.Param("userID"), c.Param("courseID"))
	if err != nil {
		h.respondWithError(c, err, "Failed to issue certificate")
		return
	}

	c.JSON(http.StatusOK, rec)
}

// TriggerSync godoc
// @Summary Run one sync pass over the queue
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncReport
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sync [post]
func (h *Handler) TriggerSync(c *gin.Context) {
	report, err := h.service.TriggerSync(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err, "Failed to run sync pass")
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSyncStatus godoc
// @Summary Get the number of entries awaiting sync
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 500 {object} ErrorResponse
// @Router /sync [get]
func (h *Handler) GetSyncStatus(c *gin.Context) {
	depth, err := h.service.QueueDepth(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err, "Failed to get sync status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending_sync_count": depth})
}

func (h *Handler) respondWithError(c *gin.Context, err error, message string) {
	switch {
	case apperrors.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case apperrors.IsSyncInProgress(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case apperrors.IsTransportFailure(err):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
	}
}
