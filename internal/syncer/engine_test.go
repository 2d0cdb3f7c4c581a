package syncer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilearn/enrollment-sync/internal/config"
	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
)

// fakeRecordStore is an in-memory RecordStore for engine tests.
type fakeRecordStore struct {
	mu      sync.Mutex
	records map[models.EnrollmentKey]*models.EnrollmentRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[models.EnrollmentKey]*models.EnrollmentRecord)}
}

func (f *fakeRecordStore) GetAll(ctx context.Context, userID string) ([]*models.EnrollmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EnrollmentRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) Find(ctx context.Context, userID, courseID string) (*models.EnrollmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[models.EnrollmentKey{UserID: userID, CourseID: courseID}], nil
}

func (f *fakeRecordStore) Upsert(ctx context.Context, rec *models.EnrollmentRecord) (*models.EnrollmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Key()] = rec
	return rec, nil
}

func (f *fakeRecordStore) UpdateSyncMetadata(ctx context.Context, key models.EnrollmentKey, state models.SyncState, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return apperrors.NewEnrollmentNotFoundError(key.UserID, key.CourseID)
	}
	if state.Rank() >= rec.SyncState.Rank() {
		rec.SyncState = state
	}
	if remoteID != "" {
		rec.RemoteID = remoteID
	}
	return nil
}

func (f *fakeRecordStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = make(map[models.EnrollmentKey]*models.EnrollmentRecord)
	return nil
}

// fakeQueue is an in-memory SyncQueue for engine tests.
type fakeQueue struct {
	mu      sync.Mutex
	entries map[models.EnrollmentKey]*models.SyncQueueEntry
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{entries: make(map[models.EnrollmentKey]*models.SyncQueueEntry)}
}

func (f *fakeQueue) Enqueue(ctx context.Context, entry *models.SyncQueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Key()] = entry
	return nil
}

func (f *fakeQueue) DrainSnapshot(ctx context.Context) ([]*models.SyncQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.SyncQueueEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeQueue) Remove(ctx context.Context, keys []models.EnrollmentKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeQueue) Size(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}

func (f *fakeQueue) SizeForUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.entries {
		if key.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueue) ClearQueue(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[models.EnrollmentKey]*models.SyncQueueEntry)
	return nil
}

// stubClient returns scripted outcomes per key.
type stubClient struct {
	mu       sync.Mutex
	outcomes map[models.EnrollmentKey]SyncOutcome
	fallback SyncOutcome
}

func newStubClient(fallback SyncOutcome) *stubClient {
	return &stubClient{
		outcomes: make(map[models.EnrollmentKey]SyncOutcome),
		fallback: fallback,
	}
}

func (s *stubClient) Attempt(ctx context.Context, entry *models.SyncQueueEntry) SyncOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome, ok := s.outcomes[entry.Key()]; ok {
		return outcome
	}
	return s.fallback
}

func (s *stubClient) Status(ctx context.Context, userID, courseID string) (bool, error) {
	return false, nil
}

func (s *stubClient) UserEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error) {
	return nil, nil
}

type engineFixture struct {
	records *fakeRecordStore
	queue   *fakeQueue
	client  *stubClient
	engine  *Engine
}

func newEngineFixture(t *testing.T, fallback SyncOutcome) *engineFixture {
	t.Helper()

	f := &engineFixture{
		records: newFakeRecordStore(),
		queue:   newFakeQueue(),
		client:  newStubClient(fallback),
	}
	f.engine = NewEngine(f.records, f.queue, f.client, config.DefaultSyncConfig(), testLogger())
	return f
}

func (f *engineFixture) seed(t *testing.T, userID, courseID string) models.EnrollmentKey {
	t.Helper()

	ctx := context.Background()
	rec := &models.EnrollmentRecord{
		ID:        "local-" + courseID,
		UserID:    userID,
		CourseID:  courseID,
		SyncState: models.SyncStateUnsynced,
	}
	_, err := f.records.Upsert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, f.queue.Enqueue(ctx, &models.SyncQueueEntry{
		UserID:   userID,
		CourseID: courseID,
		Payload:  models.PayloadFromRecord(rec),
	}))
	return rec.Key()
}

func TestDrainEmptyQueue(t *testing.T) {
	f := newEngineFixture(t, AcceptedPrimary("p1"))

	report, err := f.engine.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
}

func TestDrainMarksPrimaryAndRemovesEntry(t *testing.T) {
	f := newEngineFixture(t, AcceptedPrimary("p1"))
	key := f.seed(t, "u1", "c1")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.SucceededPrimary)
	assert.Zero(t, report.StillPending)

	rec, err := f.records.Find(ctx, key.UserID, key.CourseID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatePrimary, rec.SyncState)
	assert.Equal(t, "p1", rec.RemoteID)

	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDrainTieredFallbackMarksMirror(t *testing.T) {
	f := newEngineFixture(t, AcceptedMirror("m1"))
	key := f.seed(t, "u1", "c1")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SucceededMirror)

	rec, err := f.records.Find(ctx, key.UserID, key.CourseID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateMirror, rec.SyncState)
	assert.Equal(t, "m1", rec.RemoteID)

	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDrainUnreachableLeavesEntryQueued(t *testing.T) {
	f := newEngineFixture(t, Unreachable(assert.AnError))
	key := f.seed(t, "u1", "c1")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.StillPending)
	assert.Zero(t, report.SucceededPrimary)

	rec, err := f.records.Find(ctx, key.UserID, key.CourseID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateUnsynced, rec.SyncState)

	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestDrainFailedPassNeverRegressesSyncState(t *testing.T) {
	f := newEngineFixture(t, Unreachable(assert.AnError))
	key := f.seed(t, "u1", "c1")
	ctx := context.Background()

	// The record was already accepted by the primary on an earlier pass.
	require.NoError(t, f.records.UpdateSyncMetadata(ctx, key, models.SyncStatePrimary, "p1"))

	_, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	rec, err := f.records.Find(ctx, key.UserID, key.CourseID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatePrimary, rec.SyncState)
}

func TestDrainDropsRejectedEntriesByDefault(t *testing.T) {
	f := newEngineFixture(t, Rejected("400 Bad Request: malformed payload"))
	f.seed(t, "u1", "c1")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Reason, "malformed payload")
	assert.Zero(t, report.StillPending)

	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDrainKeepsRejectedEntriesWhenConfigured(t *testing.T) {
	f := newEngineFixture(t, Rejected("nope"))
	cfg := config.DefaultSyncConfig()
	cfg.DropRejected = false
	f.engine = NewEngine(f.records, f.queue, f.client, cfg, testLogger())
	f.seed(t, "u1", "c1")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.StillPending)
	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestDrainMixedOutcomes(t *testing.T) {
	f := newEngineFixture(t, Unreachable(assert.AnError))
	k1 := f.seed(t, "u1", "c1")
	k2 := f.seed(t, "u1", "c2")
	f.seed(t, "u1", "c3")
	f.client.outcomes[k1] = AcceptedPrimary("p1")
	f.client.outcomes[k2] = AcceptedMirror("m2")
	ctx := context.Background()

	report, err := f.engine.Drain(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 1, report.SucceededPrimary)
	assert.Equal(t, 1, report.SucceededMirror)
	assert.Equal(t, 1, report.StillPending)

	size, err := f.queue.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
