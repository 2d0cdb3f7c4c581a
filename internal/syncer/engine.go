package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrilearn/enrollment-sync/internal/config"
	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
	"github.com/agrilearn/enrollment-sync/internal/store"
)

// Engine drains the sync queue through the remote client, promotes
// records' sync metadata and removes confirmed entries. One engine
// instance serves the whole process; a drain pass may be triggered
// manually, on a timer, or opportunistically.
type Engine struct {
	records store.RecordStore
	queue   store.SyncQueue
	client  RemoteClient
	config  *config.SyncConfig
	logger  *logrus.Logger

	mu       sync.Mutex
	draining bool
}

// NewEngine creates a sync engine.
func NewEngine(records store.RecordStore, queue store.SyncQueue, client RemoteClient, cfg *config.SyncConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		records: records,
		queue:   queue,
		client:  client,
		config:  cfg,
		logger:  logger,
	}
}

type attemptResult struct {
	entry   *models.SyncQueueEntry
	outcome SyncOutcome
}

// Drain runs one sync pass: snapshot the queue, attempt every entry
// against the tiered authorities, then apply each outcome one key at a
// time. Entries enqueued after the snapshot survive untouched, and an
// abandoned pass leaves its unapplied entries queued for the next one.
// A second Drain while one is running returns SyncInProgressError.
func (e *Engine) Drain(ctx context.Context) (*models.SyncReport, error) {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return nil, apperrors.NewSyncInProgressError()
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	entries, err := e.queue.DrainSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{
		Attempted: len(entries),
		StartedAt: time.Now().UTC(),
	}
	if len(entries) == 0 {
		return report, nil
	}

	e.logger.WithField("entries", len(entries)).Info("Starting sync pass")

	// Attempts may run concurrently; outcome application stays on this
	// goroutine so store and queue mutations are per-key atomic.
	workers := e.config.MaxConcurrentSyncs
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	results := make(chan attemptResult, len(entries))
	var wg sync.WaitGroup

	for _, entry := range entries {
		wg.Add(1)
		go func(entry *models.SyncQueueEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- attemptResult{entry: entry, outcome: e.client.Attempt(ctx, entry)}
		}(entry)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		e.apply(ctx, res.entry, res.outcome, report)
	}

	report.Duration = time.Since(report.StartedAt).Milliseconds()
	e.logger.WithFields(logrus.Fields{
		"attempted":         report.Attempted,
		"succeeded_primary": report.SucceededPrimary,
		"succeeded_mirror":  report.SucceededMirror,
		"still_pending":     report.StillPending,
		"errors":            len(report.Errors),
	}).Info("Sync pass completed")

	return report, nil
}

func (e *Engine) apply(ctx context.Context, entry *models.SyncQueueEntry, outcome SyncOutcome, report *models.SyncReport) {
	key := entry.Key()
	logger := e.logger.WithFields(logrus.Fields{
		"key":     key.String(),
		"outcome": outcome.Kind.String(),
	})

	switch outcome.Kind {
	case OutcomeAcceptedPrimary, OutcomeAcceptedMirror:
		state := models.SyncStatePrimary
		if outcome.Kind == OutcomeAcceptedMirror {
			state = models.SyncStateMirror
		}
		if err := e.records.UpdateSyncMetadata(ctx, key, state, outcome.RemoteID); err != nil {
			logger.WithError(err).Error("Failed to update sync metadata")
			report.Errors = append(report.Errors, models.SyncError{
				UserID: key.UserID, CourseID: key.CourseID, Reason: err.Error(),
			})
			report.StillPending++
			return
		}
		if err := e.queue.Remove(ctx, []models.EnrollmentKey{key}); err != nil {
			// The record is marked synced; a leftover queue entry is
			// harmless because the remote accepts idempotent replays.
			logger.WithError(err).Error("Failed to remove confirmed queue entry")
			report.Errors = append(report.Errors, models.SyncError{
				UserID: key.UserID, CourseID: key.CourseID, Reason: err.Error(),
			})
		}
		if outcome.Kind == OutcomeAcceptedPrimary {
			report.SucceededPrimary++
		} else {
			report.SucceededMirror++
		}

	case OutcomeRejected:
		logger.WithField("reason", outcome.Reason).Warn("Payload rejected by remote authorities")
		report.Errors = append(report.Errors, models.SyncError{
			UserID: key.UserID, CourseID: key.CourseID, Reason: outcome.Reason,
		})
		if e.config.DropRejected {
			if err := e.queue.Remove(ctx, []models.EnrollmentKey{key}); err != nil {
				logger.WithError(err).Error("Failed to drop rejected queue entry")
			}
		} else {
			report.StillPending++
		}

	case OutcomeUnreachable:
		// Left queued untouched for a future pass.
		logger.WithError(outcome.Err).Debug("Remote authorities unreachable, entry stays queued")
		report.StillPending++
	}
}
