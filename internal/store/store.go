package store

import (
	"context"

	"github.com/agrilearn/enrollment-sync/internal/models"
)

// RecordStore defines the on-device durable store for enrollment
// records. It is the local source of truth; reads never depend on the
// remote authorities being reachable.
type RecordStore interface {
	// GetAll returns all records for a user, in no guaranteed order.
	GetAll(ctx context.Context, userID string) ([]*models.EnrollmentRecord, error)

	// Find returns the record for (userID, courseID), or nil when absent.
	Find(ctx context.Context, userID, courseID string) (*models.EnrollmentRecord, error)

	// Upsert inserts the record if none exists for its key, otherwise
	// merges the supplied fields into the existing record. EnrolledAt
	// and previously set sync metadata are preserved unless the caller
	// explicitly overwrites them; CertificateIssued never flips back to
	// false. Always bumps UpdatedAt and returns the stored record.
	Upsert(ctx context.Context, rec *models.EnrollmentRecord) (*models.EnrollmentRecord, error)

	// UpdateSyncMetadata records which tier accepted the record.
	// SyncState only ever improves: a lower-ranked state never
	// overwrites a higher one.
	UpdateSyncMetadata(ctx context.Context, key models.EnrollmentKey, state models.SyncState, remoteID string) error

	// ClearAll destroys every record. Test fixtures only.
	ClearAll(ctx context.Context) error
}

// SyncQueue defines the durable, deduplicated worklist of records
// awaiting propagation. Entries are keyed like records.
type SyncQueue interface {
	// Enqueue adds an entry, replacing the payload snapshot if the key
	// is already queued.
	Enqueue(ctx context.Context, entry *models.SyncQueueEntry) error

	// DrainSnapshot returns the current contents without mutating the
	// queue.
	DrainSnapshot(ctx context.Context) ([]*models.SyncQueueEntry, error)

	// Remove deletes exactly the given keys. Entries enqueued after a
	// snapshot was taken survive.
	Remove(ctx context.Context, keys []models.EnrollmentKey) error

	// Size returns the number of queued entries.
	Size(ctx context.Context) (int, error)

	// SizeForUser returns the number of queued entries for one user.
	SizeForUser(ctx context.Context, userID string) (int, error)

	// ClearQueue destroys every entry. Test fixtures only.
	ClearQueue(ctx context.Context) error
}
