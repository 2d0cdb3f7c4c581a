package models

import "time"

// PaymentStatus is the payment state carried on an enrollment payload.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// SyncState tracks how far an enrollment record has propagated to the
// remote authorities. It only ever improves; see SyncState.Rank.
type SyncState string

const (
	SyncStateUnsynced SyncState = "unsynced"
	SyncStateMirror   SyncState = "synced_mirror"
	SyncStatePrimary  SyncState = "synced_primary"
)

// Rank orders sync states so monotonic updates can be enforced:
// unsynced < synced_mirror < synced_primary.
func (s SyncState) Rank() int {
	switch s {
	case SyncStatePrimary:
		return 2
	case SyncStateMirror:
		return 1
	default:
		return 0
	}
}

// EnrollmentKey is the natural key of an enrollment record. At most one
// record exists per key; a second write for the same key is an upsert.
type EnrollmentKey struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

func (k EnrollmentKey) String() string {
	return k.UserID + "/" + k.CourseID
}

// Progress tracks course completion. PercentComplete is always derived
// from CompletedUnits and TotalUnits, never set independently.
type Progress struct {
	CompletedUnits  []string `json:"completed_units"`
	TotalUnits      int      `json:"total_units"`
	PercentComplete float64  `json:"percent_complete"`
}

// ComputePercent derives the completion percentage, capped at 100 so
// stray unit ids beyond the total cannot push it out of range. Zero
// total units means zero percent.
func ComputePercent(completedUnits, totalUnits int) float64 {
	if totalUnits <= 0 {
		return 0
	}
	percent := float64(completedUnits) / float64(totalUnits) * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}

// EnrollmentRecord is the locally persisted enrollment. The local copy is
// the source of truth for reads; SyncState/RemoteID describe how far it
// has propagated to the remote authorities.
type EnrollmentRecord struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"user_id"`
	CourseID            string        `json:"course_id"`
	Title               string        `json:"title"`
	Level               string        `json:"level"`
	PaymentAmount       float64       `json:"payment_amount"`
	PaymentMethod       string        `json:"payment_method"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	ContactDetails      string        `json:"contact_details"`
	EnrolledAt          time.Time     `json:"enrolled_at"`
	Progress            Progress      `json:"progress"`
	CertificateIssued   bool          `json:"certificate_issued"`
	CertificateIssuedAt *time.Time    `json:"certificate_issued_at,omitempty"`
	SyncState           SyncState     `json:"sync_state"`
	RemoteID            string        `json:"remote_id,omitempty"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Key returns the record's natural key.
func (r *EnrollmentRecord) Key() EnrollmentKey {
	return EnrollmentKey{UserID: r.UserID, CourseID: r.CourseID}
}

// EnrollmentStats is the read-side aggregation over a user's records.
type EnrollmentStats struct {
	Total              int `json:"total"`
	Completed          int `json:"completed"`
	InProgress         int `json:"in_progress"`
	CertificatesEarned int `json:"certificates_earned"`
	SyncedCount        int `json:"synced_count"`
	PendingSyncCount   int `json:"pending_sync_count"`
}

// RemoteEnrollment is an enrollment as reported by a remote authority.
type RemoteEnrollment struct {
	EnrollmentID  string        `json:"enrollmentId"`
	UserID        string        `json:"userId"`
	CourseID      string        `json:"courseId"`
	Title         string        `json:"title,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
}
