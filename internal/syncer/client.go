package syncer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/agrilearn/enrollment-sync/internal/config"
	apperrors "github.com/agrilearn/enrollment-sync/internal/errors"
	"github.com/agrilearn/enrollment-sync/internal/models"
)

// OutcomeKind classifies the result of one tiered sync attempt.
type OutcomeKind int

const (
	// OutcomeAcceptedPrimary means the system of record accepted the
	// payload and assigned an id.
	OutcomeAcceptedPrimary OutcomeKind = iota
	// OutcomeAcceptedMirror means the best-effort mirror accepted it.
	OutcomeAcceptedMirror
	// OutcomeRejected is a non-retriable application-level rejection.
	OutcomeRejected
	// OutcomeUnreachable is a transport-level failure; retriable on a
	// later pass.
	OutcomeUnreachable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAcceptedPrimary:
		return "accepted_primary"
	case OutcomeAcceptedMirror:
		return "accepted_mirror"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unreachable"
	}
}

// SyncOutcome is the first-class result of one Attempt call. Modeling
// each tier's result as a value keeps retry scheduling out of the
// client and in the engine where it belongs.
type SyncOutcome struct {
	Kind     OutcomeKind
	RemoteID string
	Reason   string
	Err      error
}

// AcceptedPrimary builds a primary-acceptance outcome.
func AcceptedPrimary(remoteID string) SyncOutcome {
	return SyncOutcome{Kind: OutcomeAcceptedPrimary, RemoteID: remoteID}
}

// AcceptedMirror builds a mirror-acceptance outcome.
func AcceptedMirror(remoteID string) SyncOutcome {
	return SyncOutcome{Kind: OutcomeAcceptedMirror, RemoteID: remoteID}
}

// Rejected builds a non-retriable rejection outcome.
func Rejected(reason string) SyncOutcome {
	return SyncOutcome{Kind: OutcomeRejected, Reason: reason}
}

// Unreachable builds a retriable transport-failure outcome.
func Unreachable(err error) SyncOutcome {
	return SyncOutcome{Kind: OutcomeUnreachable, Err: err}
}

// RemoteClient performs remote enrollment operations against the tiered
// authorities.
type RemoteClient interface {
	// Attempt pushes one queue entry: primary first, mirror on
	// transport failure or rejection. At most one request per tier per
	// call; retry scheduling belongs to the engine.
	Attempt(ctx context.Context, entry *models.SyncQueueEntry) SyncOutcome

	// Status asks the authorities whether a user is enrolled remotely.
	Status(ctx context.Context, userID, courseID string) (bool, error)

	// UserEnrollments lists a user's enrollments as known remotely.
	UserEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error)
}

// TieredClient implements RemoteClient over HTTP: a primary authority
// and an optional best-effort mirror with its own storage and
// potentially different validation rules.
type TieredClient struct {
	primary *resty.Client
	mirror  *resty.Client
	logger  *logrus.Logger
}

// NewTieredClient creates a client for the configured tiers. An empty
// mirror base URL disables the mirror tier.
func NewTieredClient(cfg *config.RemoteConfig, logger *logrus.Logger) *TieredClient {
	c := &TieredClient{
		primary: newRestyClient(cfg.PrimaryBaseURL, cfg),
		logger:  logger,
	}
	if cfg.MirrorBaseURL != "" {
		c.mirror = newRestyClient(cfg.MirrorBaseURL, cfg)
	}
	return c
}

func newRestyClient(baseURL string, cfg *config.RemoteConfig) *resty.Client {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = cfg.RequestTimeout
	}

	return resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
}

type enrollRequest struct {
	UserID   string                   `json:"userId"`
	CourseID string                   `json:"courseId"`
	Payload  models.EnrollmentPayload `json:"payload"`
}

type enrollResponse struct {
	EnrollmentID string `json:"enrollmentId"`
}

type statusResponse struct {
	IsEnrolled bool `json:"isEnrolled"`
}

type listResponse struct {
	Enrollments []models.RemoteEnrollment `json:"enrollments"`
}

// tierResult is the per-tier outcome before tier precedence is applied.
type tierResult struct {
	accepted bool
	remoteID string
	rejected bool
	reason   string
	err      error
}

func (c *TieredClient) push(ctx context.Context, client *resty.Client, entry *models.SyncQueueEntry) tierResult {
	var body enrollResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(enrollRequest{
			UserID:   entry.UserID,
			CourseID: entry.CourseID,
			Payload:  entry.Payload,
		}).
		SetResult(&body).
		Post("/enroll")
	if err != nil {
		return tierResult{err: err}
	}

	switch {
	case resp.IsSuccess():
		return tierResult{accepted: true, remoteID: body.EnrollmentID}
	case resp.StatusCode() >= http.StatusInternalServerError ||
		resp.StatusCode() == http.StatusTooManyRequests:
		// Server errors are transport-level: retriable on a later pass.
		return tierResult{err: fmt.Errorf("server error: %s", resp.Status())}
	default:
		return tierResult{rejected: true, reason: fmt.Sprintf("%s: %s", resp.Status(), resp.String())}
	}
}

// Attempt tries the primary first, then the mirror. A rejection by one
// tier does not skip the other: the mirror is independent storage. The
// outcome is Rejected only when every tier that could be reached
// rejected the payload; if any tier was unreachable and none accepted,
// the outcome is Unreachable so the entry stays queued.
func (c *TieredClient) Attempt(ctx context.Context, entry *models.SyncQueueEntry) SyncOutcome {
	logger := c.logger.WithFields(logrus.Fields{
		"user_id":   entry.UserID,
		"course_id": entry.CourseID,
	})

	primary := c.push(ctx, c.primary, entry)
	if primary.accepted {
		return AcceptedPrimary(primary.remoteID)
	}

	if primary.err != nil {
		logger.WithError(primary.err).Warn("Primary authority unreachable, falling back to mirror")
	} else {
		logger.WithField("reason", primary.reason).Warn("Primary authority rejected payload, trying mirror")
	}

	if c.mirror == nil {
		if primary.rejected {
			return Rejected(primary.reason)
		}
		return Unreachable(primary.err)
	}

	mirror := c.push(ctx, c.mirror, entry)
	if mirror.accepted {
		return AcceptedMirror(mirror.remoteID)
	}

	if primary.rejected && mirror.rejected {
		return Rejected(primary.reason)
	}
	if mirror.err != nil {
		logger.WithError(mirror.err).Warn("Mirror authority unreachable")
		return Unreachable(mirror.err)
	}
	return Unreachable(primary.err)
}

// Status checks remote enrollment state, preferring the primary and
// falling back to the mirror on transport failure.
func (c *TieredClient) Status(ctx context.Context, userID, courseID string) (bool, error) {
	tiers := []*resty.Client{c.primary}
	if c.mirror != nil {
		tiers = append(tiers, c.mirror)
	}

	var lastErr error
	for _, tier := range tiers {
		var body statusResponse
		resp, err := tier.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"userId":   userID,
				"courseId": courseID,
			}).
			SetResult(&body).
			Get("/enroll/status")
		if err != nil {
			lastErr = err
			continue
		}
		if resp.IsSuccess() {
			return body.IsEnrolled, nil
		}
		lastErr = fmt.Errorf("remote status failed: %s", resp.Status())
	}

	return false, apperrors.NewTransportError("failed to fetch remote enrollment status", lastErr)
}

// UserEnrollments lists a user's remote enrollments, preferring the
// primary and falling back to the mirror on transport failure.
func (c *TieredClient) UserEnrollments(ctx context.Context, userID string) ([]models.RemoteEnrollment, error) {
	tiers := []*resty.Client{c.primary}
	if c.mirror != nil {
		tiers = append(tiers, c.mirror)
	}

	var lastErr error
	for _, tier := range tiers {
		var body listResponse
		resp, err := tier.R().
			SetContext(ctx).
			SetResult(&body).
			Get("/enroll/user/" + userID)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.IsSuccess() {
			return body.Enrollments, nil
		}
		lastErr = fmt.Errorf("remote listing failed: %s", resp.Status())
	}

	return nil, apperrors.NewTransportError("failed to list remote enrollments", lastErr)
}

var _ RemoteClient = (*TieredClient)(nil)
