package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
)

// Drainer triggers one sync pass over the queue.
type Drainer interface {
	Drain(ctx context.Context) (*models.SyncReport, error)
}

// Scheduler runs opportunistic background drains so queued enrollments
// converge with the remote authorities without anyone asking.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	drainer      Drainer
	interval     time.Duration
	drainTimeout time.Duration
	logger       *logrus.Logger
}

// New creates a scheduler draining at the given interval.
func New(drainer Drainer, interval, drainTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		drainer:      drainer,
		interval:     interval,
		drainTimeout: drainTimeout,
		logger:       logger,
	}
}

// Start begins the periodic drain in a non-blocking manner.
func (s *Scheduler) Start() {
	s.scheduler.Every(s.interval).Do(s.runDrain)
	s.scheduler.StartAsync()
}

// Stop terminates the periodic drain.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runDrain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	report, err := s.drainer.Drain(ctx)
	if err != nil {
		if apperrors.IsSyncInProgress(err) {
			s.logger.Debug("Skipping scheduled drain, sync already in progress")
			return
		}
		s.logger.WithError(err).Warn("Scheduled drain failed")
		return
	}

	if report.Attempted > 0 {
		s.logger.WithField("report", report.String()).Info("Scheduled drain completed")
	}
}
