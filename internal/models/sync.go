package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnrollmentPayload is the snapshot of a record that gets pushed to a
// remote authority. Queue entries carry the snapshot taken at enqueue
// time; re-enqueuing the same key overwrites it (last write wins).
type EnrollmentPayload struct {
	Title             string        `json:"title"`
	Level             string        `json:"level"`
	PaymentAmount     float64       `json:"payment_amount"`
	PaymentMethod     string        `json:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	ContactDetails    string        `json:"contact_details"`
	EnrolledAt        time.Time     `json:"enrolled_at"`
	Progress          Progress      `json:"progress"`
	CertificateIssued bool          `json:"certificate_issued"`
}

// PayloadFromRecord snapshots the payload-relevant fields of a record.
func PayloadFromRecord(r *EnrollmentRecord) EnrollmentPayload {
	return EnrollmentPayload{
		Title:             r.Title,
		Level:             r.Level,
		PaymentAmount:     r.PaymentAmount,
		PaymentMethod:     r.PaymentMethod,
		PaymentStatus:     r.PaymentStatus,
		ContactDetails:    r.ContactDetails,
		EnrolledAt:        r.EnrolledAt,
		Progress:          r.Progress,
		CertificateIssued: r.CertificateIssued,
	}
}

// SyncQueueEntry is one unit of work awaiting propagation. Entries are
// keyed like records, so the queue can never hold duplicates for a key.
type SyncQueueEntry struct {
	UserID     string            `json:"user_id"`
	CourseID   string            `json:"course_id"`
	Payload    EnrollmentPayload `json:"payload"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Key returns the entry's natural key.
func (e *SyncQueueEntry) Key() EnrollmentKey {
	return EnrollmentKey{UserID: e.UserID, CourseID: e.CourseID}
}

// SyncError records a non-retriable failure from one drain pass.
type SyncError struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Reason   string `json:"reason"`
}

// SyncReport summarizes one drain pass over the sync queue.
type SyncReport struct {
	Attempted        int         `json:"attempted"`
	SucceededPrimary int         `json:"succeeded_primary"`
	SucceededMirror  int         `json:"succeeded_mirror"`
	StillPending     int         `json:"still_pending"`
	Errors           []SyncError `json:"errors,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	Duration         int64       `json:"duration_ms"`
}

// String returns the JSON string representation of the sync report.
func (r *SyncReport) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal sync report: %v"}`, err)
	}
	return string(data)
}
