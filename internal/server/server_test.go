package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/internal/metrics"
	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/store/memory"
	"github.com/goliatone/go-formportal/pkg/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, RequestTimeout: 5 * time.Second},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		Portal: config.PortalConfig{DataTable: "Data", ConfigTable: "Config", TokenParam: "token"},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestServer(t *testing.T, gw store.Gateway, options ...Option) *Server {
	t.Helper()
	p, err := portal.New(portal.WithGateway(gw))
	require.NoError(t, err)
	srv, err := NewServer(testConfig(), p, append([]Option{WithMetrics(metrics.NewMetrics())}, options...)...)
	require.NoError(t, err)
	return srv
}

func serve(t *testing.T, srv *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, srv *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, srv, http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func revisionStore() *memory.Store {
	data, cfg := testsupport.SampleTables()
	data.EnsureColumn(model.ColumnRevision)
	data.Rows[0][model.ColumnRevision] = "r1"
	return memory.New(data, cfg)
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	p, err := portal.New(portal.WithGateway(testsupport.SampleStore()))
	require.NoError(t, err)

	_, err = NewServer(nil, p)
	assert.Error(t, err)
	_, err = NewServer(testConfig(), nil)
	assert.Error(t, err)
}

func TestPage_MissingTokenIsDeniedBeforeAnyRead(t *testing.T) {
	gw := testsupport.NewCountingGateway(testsupport.SampleStore())
	srv := newTestServer(t, gw)

	rec := serve(t, srv, http.MethodGet, "/", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access Denied. No token provided.")
	assert.NotContains(t, rec.Body.String(), "<form")
	assert.Zero(t, gw.Reads())
}

func TestPage_InvalidToken(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/?token=nope", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid Token. Please check your link.")
	assert.NotContains(t, rec.Body.String(), "<form")
}

func TestPage_RendersDefaultTab(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/?token="+testsupport.TokenAcme, nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	body := rec.Body.String()
	assert.Contains(t, body, "Acme Corp")
	assert.Contains(t, body, "Finance Reporting")
	assert.Contains(t, body, `<option value="Yearly" selected>Yearly</option>`)
	assert.Contains(t, body, `action="/?tab=Finance&amp;token=abc123"`)
	assert.Contains(t, body, `href="/?tab=Operations&amp;token=abc123"`)
	assert.NotContains(t, body, "Saved data for")
}

func TestPage_NegotiatesJSON(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	req := httptest.NewRequest(http.MethodGet, "/?token="+testsupport.TokenAcme, nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
	assert.Contains(t, rec.Header().Values("Vary"), "Accept")

	var page map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Acme Corp", page["client"])
	assert.Equal(t, "Finance", page["tab"])
}

func TestPage_SavedNotice(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/?token=abc123&tab=Operations&saved=1", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Saved data for Operations!")
	assert.Contains(t, rec.Body.String(), `name="Approved" value="true" checked`)
}

func TestPage_BackendFailure(t *testing.T) {
	gw := testsupport.NewCountingGateway(testsupport.SampleStore())
	gw.ReadErr = errors.New("sheet offline")
	core, logs := observer.New(zapcore.ErrorLevel)
	srv := newTestServer(t, gw, WithLogger(zap.New(core)))

	rec := serve(t, srv, http.MethodGet, "/?token=abc123", nil, "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestSubmit_SavesAndRedirects(t *testing.T) {
	gw := testsupport.SampleStore()
	srv := newTestServer(t, gw)

	rec := postForm(t, srv, "/?token=abc123&tab=Finance", url.Values{
		"Frequency": {"Monthly"},
		"Revenue":   {"100.5"},
		"Start":     {"2024-02-02"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?saved=1&tab=Finance&token=abc123", rec.Header().Get("Location"))

	data := testsupport.MustReadTable(t, gw, model.TableData)
	assert.Equal(t, "Monthly", data.Value(0, "Frequency"))
	assert.Equal(t, 100.5, data.Value(0, "Revenue"))
	assert.Equal(t, "Weekly", data.Value(1, "Frequency"))
	assert.Equal(t, "North", data.Value(0, "Region"))
}

func TestSubmit_ValidationErrorRerendersInput(t *testing.T) {
	gw := testsupport.NewCountingGateway(testsupport.SampleStore())
	srv := newTestServer(t, gw)

	rec := postForm(t, srv, "/?token=abc123&tab=Finance", url.Values{
		"Frequency": {"Monthly"},
		"Revenue":   {"abc"},
		"Start":     {""},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "must be a number")
	assert.Contains(t, body, `name="Revenue" value="abc" aria-invalid="true"`)
	assert.Contains(t, body, `<option value="Monthly" selected>Monthly</option>`)
	assert.Zero(t, gw.Writes())
}

func TestSubmit_RevisionConflict(t *testing.T) {
	gw := testsupport.NewCountingGateway(revisionStore())
	srv := newTestServer(t, gw)

	page := serve(t, srv, http.MethodGet, "/?token=abc123", nil, "")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `<input type="hidden" name="_revision" value="r1">`)

	rec := postForm(t, srv, "/?token=abc123&tab=Finance", url.Values{
		"Frequency": {"Monthly"},
		"Revenue":   {"1"},
		"_revision": {"stale"},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), conflictMessage)
	assert.Zero(t, gw.Writes())
}

func TestSubmit_MissingToken(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := postForm(t, srv, "/?tab=Finance", url.Values{"Revenue": {"1"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_Form(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/api/form?token=abc123&tab=Operations", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Client   string           `json:"client"`
		Tab      string           `json:"tab"`
		Heading  string           `json:"heading"`
		Controls []map[string]any `json:"controls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Acme Corp", page.Client)
	assert.Equal(t, "Operations", page.Tab)
	assert.Equal(t, "Operations Reporting", page.Heading)
	assert.Len(t, page.Controls, 3)
}

func TestAPI_Denials(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	tests := []struct {
		target  string
		status  int
		code    string
		message string
	}{
		{"/api/form", http.StatusUnauthorized, "access_denied", "Access Denied. No token provided."},
		{"/api/form?token=ABC123", http.StatusForbidden, "invalid_token", "Invalid Token. Please check your link."},
		{"/api/schema?token=", http.StatusUnauthorized, "access_denied", "Access Denied. No token provided."},
	}
	for _, tt := range tests {
		rec := serve(t, srv, http.MethodGet, tt.target, nil, "")
		assert.Equal(t, tt.status, rec.Code, tt.target)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tt.code, body.Error, tt.target)
		assert.Equal(t, tt.message, body.Message, tt.target)
	}
}

func TestAPI_Schema(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/api/schema?token=abc123&tab=Finance", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Title      string         `json:"title"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Finance", doc.Title)
	assert.Contains(t, doc.Properties, "Frequency")
	assert.Contains(t, doc.Properties, "Revenue")
	assert.Contains(t, doc.Properties, "Start")
	assert.NotContains(t, doc.Properties, "Notes")
}

func TestAPI_SubmitPartialUpdate(t *testing.T) {
	gw := testsupport.SampleStore()
	srv := newTestServer(t, gw)

	rec := serve(t, srv, http.MethodPost, "/api/form?token=abc123&tab=Finance", strings.NewReader(`{"Revenue": 7}`), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Saved  bool   `json:"saved"`
		Notice string `json:"notice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.True(t, page.Saved)
	assert.Equal(t, "Saved data for Finance!", page.Notice)

	data := testsupport.MustReadTable(t, gw, model.TableData)
	assert.Equal(t, 7.0, data.Value(0, "Revenue"))
	assert.Equal(t, "Yearly", data.Value(0, "Frequency"))
}

func TestAPI_SubmitErrors(t *testing.T) {
	gw := testsupport.NewCountingGateway(revisionStore())
	srv := newTestServer(t, gw)

	rec := serve(t, srv, http.MethodPost, "/api/form?token=abc123&tab=Finance", strings.NewReader(`{"Revenue": "x"}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body.Error)
	assert.Contains(t, body.Fields, "Revenue")

	rec = serve(t, srv, http.MethodPost, "/api/form?token=abc123&tab=Finance", strings.NewReader(`{"Revenue": 1, "_revision": "stale"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, srv, http.MethodPost, "/api/form?token=abc123&tab=Finance", strings.NewReader(`[1, 2]`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, gw.Writes())
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())

	rec := serve(t, srv, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	serve(t, srv, http.MethodGet, "/?token=abc123", nil, "")
	rec = serve(t, srv, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `formportal_portal_outcomes_total{outcome="rendered"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/"`)
}

func TestAccessLogNeverContainsToken(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := newTestServer(t, testsupport.SampleStore(), WithLogger(zap.New(core)))

	serve(t, srv, http.MethodGet, "/?token=abc123&tab=Finance", nil, "")
	postForm(t, srv, "/?token=abc123&tab=Finance", url.Values{"Revenue": {"abc"}})

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, testsupport.TokenAcme)
		for _, value := range entry.ContextMap() {
			if text, ok := value.(string); ok {
				assert.NotContains(t, text, testsupport.TokenAcme)
			}
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := newTestServer(t, testsupport.SampleStore())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, time.Second)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
