package enrollment

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilearn/enrollment-sync/internal/config"
	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
	"github.com/agrilearn/enrollment-sync/internal/store"
	"github.com/agrilearn/enrollment-sync/internal/syncer"
)

const (
	testUserID   = "farmer-1"
	testCourseID = "soil-101"
)

// stubRemote scripts the outcome of every push attempt. offline mimics
// a device with no connectivity.
type stubRemote struct {
	offline     bool
	enrolled    bool
	enrollments []models.RemoteEnrollment
}

func (s *stubRemote) Attempt(ctx context.Context, entry *models.SyncQueueEntry) syncer.SyncOutcome {
	if s.offline {
		return syncer.Unreachable(assert.AnError)
	}
	return syncer.AcceptedPrimary("remote-" + entry.CourseID)
}

func (s *stubRemote) Status(ctx context.Context, userID, courseID string) (bool, error) {
	if s.offline {
		return false, apperrors.NewTransportError("all remote tiers unreachable", assert.AnError)
	}
	return s.enrolled, nil
}

func (s *stubRemote) UserEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error) {
	if s.offline {
		return nil, apperrors.NewTransportError("all remote tiers unreachable", assert.AnError)
	}
	return s.enrollments, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil)) // Discard logs during tests
	return logger
}

func newTestManager(t *testing.T) (*Manager, *stubRemote) {
	t.Helper()

	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, dbStore.Migrate())
	t.Cleanup(func() { dbStore.Close() })

	remote := &stubRemote{}
	engine := syncer.NewEngine(dbStore, dbStore, remote, config.DefaultSyncConfig(), testLogger())
	return NewManager(dbStore, dbStore, engine, remote, testLogger()), remote
}

func testInput() Input {
	return Input{
		UserID:        testUserID,
		CourseID:      testCourseID,
		Title:         "Soil Health Basics",
		Level:         "beginner",
		PaymentAmount: 25,
		PaymentMethod: "mobile-money",
		PaymentStatus: models.PaymentCompleted,
		TotalUnits:    5,
	}
}

func TestAddEnrollmentSucceedsOffline(t *testing.T) {
	m, remote := newTestManager(t)
	remote.offline = true
	ctx := context.Background()

	rec, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, models.SyncStateUnsynced, rec.SyncState)
	assert.Zero(t, rec.Progress.PercentComplete)

	enrolled, err := m.IsEnrolled(ctx, testUserID, testCourseID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	depth, err := m.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestAddEnrollmentDefaultsPaymentToPending(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	input := testInput()
	input.PaymentStatus = ""
	rec, err := m.AddEnrollment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, rec.PaymentStatus)

	// Pending payment does not grant course access.
	enrolled, err := m.IsEnrolled(ctx, testUserID, testCourseID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestAddEnrollmentRejectsMissingUserID(t *testing.T) {
	m, _ := newTestManager(t)

	input := testInput()
	input.UserID = ""
	_, err := m.AddEnrollment(context.Background(), input)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestAddEnrollmentIsIdempotentPerCourse(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	input := testInput()
	input.Title = "Soil Health Basics 2024"
	second, err := m.AddEnrollment(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Soil Health Basics 2024", second.Title)

	all, err := m.ListEnrollments(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The queue deduplicates by key as well.
	depth, err := m.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestReenrollmentPreservesProgress(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)
	_, err = m.UpdateProgress(ctx, testUserID, testCourseID, []string{"u1", "u2"}, 0)
	require.NoError(t, err)

	// A resumed session re-submits the enrollment; earned progress must
	// survive it.
	rec, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2"}, rec.Progress.CompletedUnits)
	assert.InDelta(t, 40, rec.Progress.PercentComplete, 0.01)
}

func TestIsEnrolledUnknownCourse(t *testing.T) {
	m, _ := newTestManager(t)

	enrolled, err := m.IsEnrolled(context.Background(), testUserID, "unknown")
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestUpdateProgressIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	rec, err := m.UpdateProgress(ctx, testUserID, testCourseID, []string{"u1", "u2"}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 40, rec.Progress.PercentComplete, 0.01)

	// Resubmitting the same units changes nothing.
	rec, err = m.UpdateProgress(ctx, testUserID, testCourseID, []string{"u2", "u1"}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 40, rec.Progress.PercentComplete, 0.01)
	assert.Equal(t, []string{"u1", "u2"}, rec.Progress.CompletedUnits)
}

func TestUpdateProgressCapsPercentAtFull(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	// Six distinct unit ids against five total units.
	rec, err := m.UpdateProgress(ctx, testUserID, testCourseID,
		[]string{"u1", "u2", "u3", "u4", "u5", "u6"}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100, rec.Progress.PercentComplete, 0.01)
}

func TestUpdateProgressUnknownCourse(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.UpdateProgress(context.Background(), testUserID, "unknown", []string{"u1"}, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMarkCertificateIssuedRequiresCompletion(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	_, err = m.MarkCertificateIssued(ctx, testUserID, testCourseID)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestMarkCertificateIssuedIsPermanent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)
	_, err = m.UpdateProgress(ctx, testUserID, testCourseID, []string{"u1", "u2", "u3", "u4", "u5"}, 0)
	require.NoError(t, err)

	issued, err := m.MarkCertificateIssued(ctx, testUserID, testCourseID)
	require.NoError(t, err)
	assert.True(t, issued.CertificateIssued)
	require.NotNil(t, issued.CertificateIssuedAt)
	firstIssuedAt := *issued.CertificateIssuedAt

	// Repeat call is a no-op that keeps the original timestamp.
	again, err := m.MarkCertificateIssued(ctx, testUserID, testCourseID)
	require.NoError(t, err)
	assert.True(t, again.CertificateIssued)
	require.NotNil(t, again.CertificateIssuedAt)
	assert.Equal(t, firstIssuedAt.Unix(), again.CertificateIssuedAt.Unix())
}

func TestOfflineEnrollmentSyncsWhenConnectivityReturns(t *testing.T) {
	m, remote := newTestManager(t)
	ctx := context.Background()

	// Enroll and complete the course with no connectivity.
	remote.offline = true
	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)
	_, err = m.UpdateProgress(ctx, testUserID, testCourseID, []string{"u1", "u2", "u3", "u4", "u5"}, 0)
	require.NoError(t, err)

	report, err := m.TriggerSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.StillPending)

	stats, err := m.GetStats(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, stats.SyncedCount)
	assert.Equal(t, 1, stats.PendingSyncCount)

	// Connectivity returns; the next pass converges.
	remote.offline = false
	report, err = m.TriggerSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SucceededPrimary)

	stats, err = m.GetStats(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SyncedCount)
	assert.Zero(t, stats.PendingSyncCount)

	rec, err := m.ListEnrollments(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, models.SyncStatePrimary, rec[0].SyncState)
	assert.Equal(t, "remote-"+testCourseID, rec[0].RemoteID)
}

func TestGetStatsCountsPerUser(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEnrollment(ctx, testInput())
	require.NoError(t, err)

	other := testInput()
	other.UserID = "farmer-2"
	other.CourseID = "irrigation-201"
	_, err = m.AddEnrollment(ctx, other)
	require.NoError(t, err)

	stats, err := m.GetStats(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.PendingSyncCount)
}

func TestRemoteStatusDelegatesToClient(t *testing.T) {
	m, remote := newTestManager(t)
	remote.enrolled = true

	enrolled, err := m.RemoteStatus(context.Background(), testUserID, testCourseID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	remote.offline = true
	_, err = m.RemoteStatus(context.Background(), testUserID, testCourseID)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransportFailure(err))
}

func TestRemoteEnrollmentsDelegatesToClient(t *testing.T) {
	m, remote := newTestManager(t)
	remote.enrollments = []models.RemoteEnrollment{
		{EnrollmentID: "p1", UserID: testUserID, CourseID: testCourseID},
	}

	enrollments, err := m.RemoteEnrollments(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "p1", enrollments[0].EnrollmentID)

	remote.offline = true
	_, err = m.RemoteEnrollments(context.Background(), testUserID)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransportFailure(err))
}
