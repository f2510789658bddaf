package leads

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bigcity/rewardstrategy/internal/shared"
)

// Submitter delivers one payload. It returns nil on success, *ServerError
// when the endpoint answered with a failure status and *NetworkError when no
// response arrived.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) error
}

// Guard serialises submissions for one key across requests. Acquire returns
// shared.ErrLockHeld while another holder is active.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Deduper remembers accepted submissions so a stale copy of the same form
// cannot be posted again. CheckAndInsert returns shared.ErrIdempotencyConflict
// for a key it has already seen.
type Deduper interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

const dedupModule = "leads"

// Acknowledger is told about accepted submissions.
type Acknowledger interface {
	Acknowledge(ctx context.Context, payload Payload) error
}

// Recorder receives submission outcomes for metrics.
type Recorder interface {
	RecordSubmission(outcome string, elapsed time.Duration)
}

// Outcome labels passed to Recorder.
const (
	OutcomeSuccess     = "success"
	OutcomeValidation  = "validation_error"
	OutcomeServerError = "server_error"
	OutcomeNetwork     = "network_error"
	OutcomeInFlight    = "in_flight"
	OutcomeFailed      = "failed"
)

// ControllerConfig wires a Controller. Only Submitter is required.
type ControllerConfig struct {
	Submitter    Submitter
	Guard        Guard
	Dedup        Deduper
	Acknowledger Acknowledger
	Recorder     Recorder
	Logger       *slog.Logger
	Source       string
	Now          func() time.Time
}

// Controller runs the submit state machine over a State.
type Controller struct {
	submitter Submitter
	guard     Guard
	dedup     Deduper
	ack       Acknowledger
	recorder  Recorder
	logger    *slog.Logger
	source    string
	now       func() time.Time
}

// NewController constructs a Controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Submitter == nil {
		return nil, errors.New("leads: submitter required")
	}
	c := &Controller{
		submitter: cfg.Submitter,
		guard:     cfg.Guard,
		dedup:     cfg.Dedup,
		ack:       cfg.Acknowledger,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		source:    cfg.Source,
		now:       cfg.Now,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.source == "" {
		c.source = DefaultSource
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Submit validates the state's values and, when complete, sends them. key
// identifies the owner of st (the session id) for the cross-request guard.
//
// The returned error is nil on success, ErrSubmissionInFlight when rejected
// by the guard or when the same values were already accepted for key (st
// untouched), or the *ValidationError, *ServerError or
// *NetworkError that ended the attempt. st always reflects the outcome and
// is never left in StatusSubmitting.
func (c *Controller) Submit(ctx context.Context, key string, st *State) error {
	if st == nil {
		return errors.New("leads: nil state")
	}
	if st.Status == StatusSubmitting {
		c.record(OutcomeInFlight, 0)
		return ErrSubmissionInFlight
	}
	if c.guard != nil && key != "" {
		release, err := c.guard.Acquire(ctx, key)
		switch {
		case errors.Is(err, shared.ErrLockHeld):
			c.record(OutcomeInFlight, 0)
			return ErrSubmissionInFlight
		case err != nil:
			c.logger.Warn("submit guard unavailable", slog.String("key", key), slog.Any("error", err))
		default:
			defer release()
		}
	}

	missing := Validate(st.Values)
	var claimed string
	if len(missing) == 0 {
		var err error
		if claimed, err = c.claim(ctx, key, st.Values); err != nil {
			c.record(OutcomeInFlight, 0)
			return err
		}
	}

	st.Status = StatusSubmitting
	st.Detail = ""
	st.Missing = nil

	if len(missing) > 0 {
		verr := &ValidationError{Missing: missing}
		st.Status = StatusError
		st.Missing = missing
		st.Detail = verr.UserMessage()
		c.record(OutcomeValidation, 0)
		return verr
	}

	payload := BuildPayload(st.Values, c.now(), c.source)
	start := time.Now()
	err := c.submitter.Submit(ctx, payload)
	elapsed := time.Since(start)
	if err != nil {
		c.unclaim(ctx, claimed)
		st.Status = StatusError
		st.Detail = Detail(err)
		c.record(outcomeOf(err), elapsed)
		c.logger.Warn("lead submission failed", slog.Any("error", err), slog.Duration("elapsed", elapsed))
		return err
	}

	st.Values.Reset()
	st.Status = StatusSuccess
	st.Detail = SuccessDetail
	c.record(OutcomeSuccess, elapsed)
	c.logger.Info("lead submitted", slog.String("industry", payload.Industry), slog.Duration("elapsed", elapsed))

	if c.ack != nil {
		if err := c.ack.Acknowledge(ctx, payload); err != nil {
			c.logger.Warn("acknowledge lead", slog.Any("error", err))
		}
	}
	return nil
}

// claim records the values about to be sent for key. It returns the claimed
// dedup key, or ErrSubmissionInFlight when they were accepted before.
func (c *Controller) claim(ctx context.Context, key string, values FormValues) (string, error) {
	if c.dedup == nil || key == "" {
		return "", nil
	}
	fp, err := fingerprint(key, values)
	if err != nil {
		c.logger.Warn("fingerprint lead", slog.Any("error", err))
		return "", nil
	}
	err = c.dedup.CheckAndInsert(ctx, fp, dedupModule)
	switch {
	case err == nil:
		return fp, nil
	case errors.Is(err, shared.ErrIdempotencyConflict):
		return "", ErrSubmissionInFlight
	default:
		c.logger.Warn("submit dedup unavailable", slog.String("key", key), slog.Any("error", err))
		return "", nil
	}
}

// unclaim forgets a failed attempt so the visitor can retry it.
func (c *Controller) unclaim(ctx context.Context, fp string) {
	if fp == "" {
		return
	}
	if err := c.dedup.Delete(context.WithoutCancel(ctx), fp, dedupModule); err != nil {
		c.logger.Warn("release submit dedup", slog.Any("error", err))
	}
}

func fingerprint(key string, values FormValues) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return key + ":" + hex.EncodeToString(sum[:]), nil
}

func (c *Controller) record(outcome string, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordSubmission(outcome, elapsed)
	}
}

func outcomeOf(err error) string {
	var serverErr *ServerError
	var netErr *NetworkError
	switch {
	case errors.As(err, &serverErr):
		return OutcomeServerError
	case errors.As(err, &netErr):
		return OutcomeNetwork
	default:
		return OutcomeFailed
	}
}
