package leads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigcity/rewardstrategy/internal/shared"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []Payload
	err      error
	during   func()
}

func (f *fakeSubmitter) Submit(_ context.Context, p Payload) error {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.during != nil {
		f.during()
	}
	return f.err
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeGuard struct {
	err      error
	released int
}

func (g *fakeGuard) Acquire(context.Context, string) (func(), error) {
	if g.err != nil {
		return nil, g.err
	}
	return func() { g.released++ }, nil
}

type fakeAck struct {
	payloads []Payload
	err      error
}

func (a *fakeAck) Acknowledge(_ context.Context, p Payload) error {
	a.payloads = append(a.payloads, p)
	return a.err
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) RecordSubmission(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func newTestController(t *testing.T, cfg ControllerConfig) *Controller {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	c, err := NewController(cfg)
	require.NoError(t, err)
	return c
}

func scenarioAValues() FormValues {
	return FormValues{
		Name:              "Jane",
		Email:             "jane@co.com",
		Mobile:            "9999999999",
		Company:           "Acme",
		Industry:          "Automotive",
		CampaignObjective: []string{"Drive sales/conversions"},
		TargetAudience:    []string{"Women"},
		Age:               []string{"25 - 40"},
	}
}

func TestNewControllerRequiresSubmitter(t *testing.T) {
	_, err := NewController(ControllerConfig{})
	assert.Error(t, err)
}

func TestSubmitSuccess(t *testing.T) {
	sub := &fakeSubmitter{}
	guard := &fakeGuard{}
	ack := &fakeAck{}
	rec := &fakeRecorder{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Guard: guard, Acknowledger: ack, Recorder: rec})

	st := NewState()
	st.Values = scenarioAValues()
	require.NoError(t, c.Submit(context.Background(), "sess-1", st))

	require.Len(t, sub.payloads, 1)
	assert.Equal(t, "Drive sales/conversions", sub.payloads[0].CampaignObjective)
	assert.Equal(t, "2024-11-01T10:00:00.123Z", sub.payloads[0].Timestamp)
	assert.Equal(t, DefaultSource, sub.payloads[0].Source)

	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, SuccessDetail, st.Detail)
	assert.Equal(t, NewFormValues(), st.Values)
	assert.Equal(t, 1, guard.released)
	assert.Len(t, ack.payloads, 1)
	assert.Equal(t, []string{OutcomeSuccess}, rec.outcomes)
}

func TestSubmitMissingFieldSkipsSubmitter(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Recorder: rec})

	st := NewState()
	st.Values = scenarioAValues()
	st.Values.CampaignObjective = []string{}
	err := c.Submit(context.Background(), "sess-1", st)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, FieldCampaignObjective)
	assert.Equal(t, 0, sub.calls())
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, []string{FieldCampaignObjective}, st.Missing)
	assert.Equal(t, "Please fill in all required fields: Campaign Objective", st.Detail)
	assert.Equal(t, "Jane", st.Values.Name)
	assert.Equal(t, []string{OutcomeValidation}, rec.outcomes)
}

func TestSubmitServerError(t *testing.T) {
	sub := &fakeSubmitter{err: &ServerError{StatusCode: 500, Body: "Internal Error"}}
	c := newTestController(t, ControllerConfig{Submitter: sub})

	st := NewState()
	st.Values = scenarioAValues()
	err := c.Submit(context.Background(), "sess-1", st)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.Detail, "500")
	assert.Contains(t, st.Detail, "Internal Error")
	assert.Equal(t, scenarioAValues(), st.Values)
}

func TestSubmitNetworkErrorKeepsValues(t *testing.T) {
	ack := &fakeAck{}
	sub := &fakeSubmitter{err: &NetworkError{Kind: NetworkConnectivity, Err: syscall.ECONNREFUSED}}
	c := newTestController(t, ControllerConfig{Submitter: sub, Acknowledger: ack})

	st := NewState()
	st.Values = scenarioAValues()
	err := c.Submit(context.Background(), "sess-1", st)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.Detail, "internet connection")
	assert.Equal(t, scenarioAValues(), st.Values)
	assert.Empty(t, ack.payloads)
}

func TestSubmitRejectsReentrantCall(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub})

	st := NewState()
	st.Values = scenarioAValues()
	st.Status = StatusSubmitting

	assert.ErrorIs(t, c.Submit(context.Background(), "sess-1", st), ErrSubmissionInFlight)
	assert.Equal(t, 0, sub.calls())
	assert.Equal(t, StatusSubmitting, st.Status)
}

func TestSubmitIsSubmittingWhileInFlight(t *testing.T) {
	st := NewState()
	st.Values = scenarioAValues()

	var seen Status
	sub := &fakeSubmitter{}
	sub.during = func() { seen = st.Status }
	c := newTestController(t, ControllerConfig{Submitter: sub})

	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, StatusSubmitting, seen)
	assert.NotEqual(t, StatusSubmitting, st.Status)
}

func TestSubmitHeldLock(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Guard: &fakeGuard{err: shared.ErrLockHeld}, Recorder: rec})

	st := NewState()
	st.Values = scenarioAValues()

	assert.ErrorIs(t, c.Submit(context.Background(), "sess-1", st), ErrSubmissionInFlight)
	assert.Equal(t, 0, sub.calls())
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, []string{OutcomeInFlight}, rec.outcomes)
}

func TestSubmitFailsOpenWhenLockStoreDown(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Guard: &fakeGuard{err: errors.New("redis down")}})

	st := NewState()
	st.Values = scenarioAValues()

	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, 1, sub.calls())
}

func TestSubmitAckFailureDoesNotChangeOutcome(t *testing.T) {
	c := newTestController(t, ControllerConfig{Submitter: &fakeSubmitter{}, Acknowledger: &fakeAck{err: errors.New("queue down")}})

	st := NewState()
	st.Values = scenarioAValues()

	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, StatusSuccess, st.Status)
}

func TestSubmitAfterErrorClearsPreviousDetail(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub})

	st := NewState()
	st.Values = scenarioAValues()
	st.Status = StatusError
	st.Detail = "Server error (500): Internal Error"
	st.Missing = []string{FieldName}

	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, SuccessDetail, st.Detail)
	assert.Empty(t, st.Missing)
}

func newTestDedup(t *testing.T) *shared.IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewIdempotencyStore(client, 10*time.Minute)
}

type failingDedup struct{}

func (failingDedup) CheckAndInsert(context.Context, string, string) error {
	return errors.New("redis down")
}

func (failingDedup) Delete(context.Context, string, string) error { return nil }

func TestSubmitStaleCopyIsNotPostedTwice(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	guard := &fakeGuard{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Guard: guard, Dedup: newTestDedup(t), Recorder: rec})

	first := NewState()
	first.Values = scenarioAValues()
	// A second request loaded the session before the first one saved it.
	stale := NewState()
	stale.Values = scenarioAValues()

	require.NoError(t, c.Submit(context.Background(), "sess-1", first))
	assert.ErrorIs(t, c.Submit(context.Background(), "sess-1", stale), ErrSubmissionInFlight)

	assert.Equal(t, 1, sub.calls())
	assert.Equal(t, StatusIdle, stale.Status)
	assert.Equal(t, scenarioAValues(), stale.Values)
	assert.Equal(t, 2, guard.released)
	assert.Equal(t, []string{OutcomeSuccess, OutcomeInFlight}, rec.outcomes)
}

func TestSubmitDedupIsPerSession(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Dedup: newTestDedup(t)})

	for _, key := range []string{"sess-1", "sess-2"} {
		st := NewState()
		st.Values = scenarioAValues()
		require.NoError(t, c.Submit(context.Background(), key, st))
	}
	assert.Equal(t, 2, sub.calls())
}

func TestSubmitFailureAllowsRetryOfSameValues(t *testing.T) {
	sub := &fakeSubmitter{err: &ServerError{StatusCode: 500, Body: "Internal Error"}}
	c := newTestController(t, ControllerConfig{Submitter: sub, Dedup: newTestDedup(t)})

	st := NewState()
	st.Values = scenarioAValues()
	require.Error(t, c.Submit(context.Background(), "sess-1", st))

	sub.err = nil
	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, 2, sub.calls())
	assert.Equal(t, StatusSuccess, st.Status)
}

func TestSubmitValidationErrorDoesNotClaim(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Dedup: newTestDedup(t)})

	st := NewState()
	st.Values = scenarioAValues()
	st.Values.Name = ""
	var verr *ValidationError
	require.ErrorAs(t, c.Submit(context.Background(), "sess-1", st), &verr)

	st.Values.Name = "Jane"
	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, 1, sub.calls())
}

func TestSubmitFailsOpenWhenDedupStoreDown(t *testing.T) {
	sub := &fakeSubmitter{}
	c := newTestController(t, ControllerConfig{Submitter: sub, Dedup: failingDedup{}})

	st := NewState()
	st.Values = scenarioAValues()
	require.NoError(t, c.Submit(context.Background(), "sess-1", st))
	assert.Equal(t, 1, sub.calls())
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "", Detail(nil))
	assert.Equal(t, "Server error (502). Please try again.", Detail(&ServerError{StatusCode: 502}))
	assert.Equal(t, "Your request is already being processed.", Detail(ErrSubmissionInFlight))
	assert.Equal(t, "There was an error submitting your request. Please try again.", Detail(errors.New("x")))
	assert.Equal(t, "There was an error submitting your request. Please try again.", Detail(&NetworkError{Kind: NetworkUnknown}))
}
