package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigcity/rewardstrategy/internal/leads"
	"github.com/bigcity/rewardstrategy/internal/observability"
	"github.com/bigcity/rewardstrategy/internal/shared"
	"github.com/bigcity/rewardstrategy/internal/view"
	"github.com/bigcity/rewardstrategy/jobs"
)

type stubSubmitter struct {
	mu    sync.Mutex
	leads []leads.Payload
}

func (s *stubSubmitter) Submit(_ context.Context, p leads.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, p)
	return nil
}

type testApp struct {
	server    *httptest.Server
	client    *http.Client
	submitter *stubSubmitter
	redis     *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000}
	sessions := shared.NewSessionManager(rdb, "rs_session", "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	metrics := observability.NewMetrics()
	templates, err := view.NewEngine()
	require.NoError(t, err)

	sub := &stubSubmitter{}
	controller, err := leads.NewController(leads.ControllerConfig{
		Submitter: sub,
		Guard:     shared.NewLocker(rdb, time.Minute),
		Dedup:     shared.NewIdempotencyStore(rdb, 10*time.Minute),
		Recorder:  metrics,
		Logger:    logger,
	})
	require.NoError(t, err)

	router := NewRouter(RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		LeadHandler:    leads.NewHandler(logger, controller, templates, csrf),
		JobHandler:     jobs.NewHandler(nil, logger),
		Metrics:        metrics,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: srv, client: client, submitter: sub, redis: mr}
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func (a *testApp) formToken(t *testing.T) string {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := csrfInput.FindSubmatch(body)
	require.NotNil(t, m, "csrf input missing")
	return string(m[1])
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestFormSubmissionEndToEnd(t *testing.T) {
	a := newTestApp(t)
	token := a.formToken(t)

	form := url.Values{
		shared.CSRFFormField:         {token},
		leads.FieldName:              {"Jane"},
		leads.FieldEmail:             {"jane@co.com"},
		leads.FieldMobile:            {"9999999999"},
		leads.FieldCompany:           {"Acme"},
		leads.FieldIndustry:          {"Automotive"},
		leads.FieldCampaignObjective: {"Drive sales/conversions"},
		leads.FieldTargetAudience:    {"Women"},
	}
	resp := a.postForm(t, "/", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, a.submitter.leads)

	form.Set(leads.FieldAge, "25 - 40")
	resp = a.postForm(t, "/", form)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, a.submitter.leads, 1)
	assert.Equal(t, "25 - 40", a.submitter.leads[0].Age)
	assert.Equal(t, leads.DefaultSource, a.submitter.leads[0].Source)

	for _, key := range a.redis.Keys() {
		assert.False(t, strings.HasSuffix(key, ":lock"), "lock %s left behind", key)
	}
}

func TestRepeatedFormPostIsSentOnce(t *testing.T) {
	a := newTestApp(t)
	token := a.formToken(t)

	form := url.Values{
		shared.CSRFFormField:         {token},
		leads.FieldName:              {"Jane"},
		leads.FieldEmail:             {"jane@co.com"},
		leads.FieldMobile:            {"9999999999"},
		leads.FieldCompany:           {"Acme"},
		leads.FieldIndustry:          {"Automotive"},
		leads.FieldCampaignObjective: {"Drive sales/conversions"},
		leads.FieldTargetAudience:    {"Women"},
		leads.FieldAge:               {"25 - 40"},
	}
	resp := a.postForm(t, "/", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = a.postForm(t, "/", form)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, a.submitter.leads, 1)

	form.Set(leads.FieldCompany, "Acme Foods")
	resp = a.postForm(t, "/", form)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, a.submitter.leads, 2)
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	a := newTestApp(t)
	a.formToken(t)

	resp := a.postForm(t, "/", url.Values{leads.FieldName: {"Jane"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, a.server.URL+"/api/lead", nil)
	require.NoError(t, err)
	resp, err = a.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPIUsesHeaderToken(t *testing.T) {
	a := newTestApp(t)

	resp, err := a.client.Get(a.server.URL + "/api/lead")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get(shared.CSRFHeader)
	require.NotEmpty(t, token)

	req, err := http.NewRequest(http.MethodPatch, a.server.URL+"/api/lead/fields", strings.NewReader(`{"field":"name","value":"Jane"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.CSRFHeader, token)
	resp, err = a.client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"name":"Jane"`)
}

func TestOperationalEndpoints(t *testing.T) {
	a := newTestApp(t)

	for path, want := range map[string]string{
		"/healthz":            `"status":"ok"`,
		"/jobs/health":        `"queue":"default"`,
		"/static/css/app.css": ".card",
		"/static/js/form.js":  "Processing Request...",
	} {
		resp, err := a.client.Get(a.server.URL + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}

	resp, err := a.client.Get(a.server.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rewardstrategy_http_requests_total")
}

func TestSecurityHeaders(t *testing.T) {
	a := newTestApp(t)

	resp, err := a.client.Get(a.server.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
