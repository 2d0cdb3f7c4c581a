package enrollment

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
	"github.com/agrilearn/enrollment-sync/internal/store"
	"github.com/agrilearn/enrollment-sync/internal/syncer"
)

// Drainer triggers one sync pass over the queue.
type Drainer interface {
	Drain(ctx context.Context) (*models.SyncReport, error)
}

// Input is the payload accepted by AddEnrollment.
type Input struct {
	UserID         string               `json:"user_id" validate:"required"`
	CourseID       string               `json:"course_id" validate:"required"`
	Title          string               `json:"title"`
	Level          string               `json:"level"`
	PaymentAmount  float64              `json:"payment_amount" validate:"gte=0"`
	PaymentMethod  string               `json:"payment_method"`
	PaymentStatus  models.PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending completed failed"`
	ContactDetails string               `json:"contact_details"`
	TotalUnits     int                  `json:"total_units" validate:"gte=0"`
}

// Manager is the only entry point the rest of the application uses for
// enrollments. Local writes succeed with no network available; the
// queue and engine converge local state with the remote authorities
// later.
type Manager struct {
	records  store.RecordStore
	queue    store.SyncQueue
	engine   Drainer
	remote   syncer.RemoteClient
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewManager creates the enrollment facade.
func NewManager(records store.RecordStore, queue store.SyncQueue, engine Drainer, remote syncer.RemoteClient, logger *logrus.Logger) *Manager {
	return &Manager{
		records:  records,
		queue:    queue,
		engine:   engine,
		remote:   remote,
		validate: validator.New(),
		logger:   logger,
	}
}

// AddEnrollment persists an enrollment locally and queues it for
// propagation. It must succeed even when no network is available; only
// a local storage failure makes it fail. A second call for the same
// (userID, courseID) is an upsert: mutable fields take the new values,
// EnrolledAt stays from the first call.
func (m *Manager) AddEnrollment(ctx context.Context, input Input) (*models.EnrollmentRecord, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid enrollment payload", err)
	}

	status := input.PaymentStatus
	if status == "" {
		status = models.PaymentPending
	}

	now := time.Now().UTC()
	rec := &models.EnrollmentRecord{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		CourseID:       input.CourseID,
		Title:          input.Title,
		Level:          input.Level,
		PaymentAmount:  input.PaymentAmount,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  status,
		ContactDetails: input.ContactDetails,
		EnrolledAt:     now,
		Progress: models.Progress{
			CompletedUnits:  []string{},
			TotalUnits:      input.TotalUnits,
			PercentComplete: 0,
		},
		SyncState: models.SyncStateUnsynced,
		UpdatedAt: now,
	}

	saved, err := m.records.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := m.enqueue(ctx, saved); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   saved.UserID,
		"course_id": saved.CourseID,
	}).Info("Enrollment stored locally and queued for sync")

	return saved, nil
}

// IsEnrolled reports whether a local record with completed payment
// exists. Sync state is irrelevant: local truth is authoritative for
// access control.
func (m *Manager) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	rec, err := m.records.Find(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.PaymentStatus == models.PaymentCompleted, nil
}

// UpdateProgress merges the supplied completed units into the record,
// recomputes the completion percentage and re-queues the record for
// sync. Supplying the same units twice is a no-op for the percentage.
func (m *Manager) UpdateProgress(ctx context.Context, userID, courseID string, completedUnits []string, totalUnits int) (*models.EnrollmentRecord, error) {
	rec, err := m.records.Find(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewEnrollmentNotFoundError(userID, courseID)
	}

	rec.Progress.CompletedUnits = mergeUnits(rec.Progress.CompletedUnits, completedUnits)
	if totalUnits > 0 {
		rec.Progress.TotalUnits = totalUnits
	}
	rec.Progress.PercentComplete = models.ComputePercent(len(rec.Progress.CompletedUnits), rec.Progress.TotalUnits)

	saved, err := m.records.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := m.enqueue(ctx, saved); err != nil {
		return nil, err
	}

	if saved.Progress.PercentComplete >= 100 && !saved.CertificateIssued {
		m.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"course_id": courseID,
		}).Info("Course completed, certificate eligible")
	}

	return saved, nil
}

// MarkCertificateIssued flags the certificate as issued. Requires 100%
// progress; once issued it is never reset by this subsystem, so a
// repeated call is a no-op.
func (m *Manager) MarkCertificateIssued(ctx context.Context, userID, courseID string) (*models.EnrollmentRecord, error) {
	rec, err := m.records.Find(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewEnrollmentNotFoundError(userID, courseID)
	}
	if rec.CertificateIssued {
		return rec, nil
	}
	if rec.Progress.PercentComplete < 100 {
		return nil, apperrors.NewValidationError("certificate requires completed course", nil)
	}

	now := time.Now().UTC()
	rec.CertificateIssued = true
	rec.CertificateIssuedAt = &now

	saved, err := m.records.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := m.enqueue(ctx, saved); err != nil {
		return nil, err
	}

	return saved, nil
}

// ListEnrollments returns all local records for a user.
func (m *Manager) ListEnrollments(ctx context.Context, userID string) ([]*models.EnrollmentRecord, error) {
	return m.records.GetAll(ctx, userID)
}

// GetStats aggregates a user's local records plus their share of the
// sync queue.
func (m *Manager) GetStats(ctx context.Context, userID string) (*models.EnrollmentStats, error) {
	records, err := m.records.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.EnrollmentStats{Total: len(records)}
	for _, rec := range records {
		if rec.Progress.PercentComplete >= 100 {
			stats.Completed++
		} else {
			stats.InProgress++
		}
		if rec.CertificateIssued {
			stats.CertificatesEarned++
		}
		if rec.SyncState != models.SyncStateUnsynced {
			stats.SyncedCount++
		}
	}

	pending, err := m.queue.SizeForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.PendingSyncCount = pending

	return stats, nil
}

// TriggerSync runs one drain pass.
func (m *Manager) TriggerSync(ctx context.Context) (*models.SyncReport, error) {
	return m.engine.Drain(ctx)
}

// QueueDepth returns the number of entries awaiting propagation.
func (m *Manager) QueueDepth(ctx context.Context) (int, error) {
	return m.queue.Size(ctx)
}

// RemoteStatus asks the remote authorities whether a user is enrolled.
// Auxiliary signal only; local truth governs access control.
func (m *Manager) RemoteStatus(ctx context.Context, userID, courseID string) (bool, error) {
	return m.remote.Status(ctx, userID, courseID)
}

// RemoteEnrollments lists a user's enrollments as known by the remote
// authorities. Auxiliary signal only, useful for spotting records the
// portal has that this device does not.
func (m *Manager) RemoteEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error) {
	return m.remote.UserEnrollments(ctx, userID)
}

func (m *Manager) enqueue(ctx context.Context, rec *models.EnrollmentRecord) error {
	now := time.Now().UTC()
	return m.queue.Enqueue(ctx, &models.SyncQueueEntry{
		UserID:     rec.UserID,
		CourseID:   rec.CourseID,
		Payload:    models.PayloadFromRecord(rec),
		EnqueuedAt: now,
		UpdatedAt:  now,
	})
}

// mergeUnits unions two unit-id sets, deduplicated and sorted.
func mergeUnits(existing, supplied []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(supplied))
	for _, u := range existing {
		seen[u] = struct{}{}
	}
	for _, u := range supplied {
		seen[u] = struct{}{}
	}

	merged := make([]string, 0, len(seen))
	for u := range seen {
		merged = append(merged, u)
	}
	sort.Strings(merged)
	return merged
}
