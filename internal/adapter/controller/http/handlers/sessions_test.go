package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VishwasN1706/airis/internal/entity"
	"github.com/VishwasN1706/airis/internal/usecase/conversation"
)

type stubLookup struct {
	bundle *entity.Bundle
	err    error
}

func (s *stubLookup) Lookup(ctx context.Context, ip string) (*entity.Bundle, error) {
	return s.bundle, s.err
}

func testRouter(lookup conversation.LookupProvider) (*chi.Mux, *conversation.Service) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := conversation.NewService(lookup, 5*time.Millisecond, logger)
	h := NewSessionsHandler(svc)

	r := chi.NewRouter()
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/messages", h.SubmitMessage)
		r.Get("/{id}/export", h.Export)
	})
	return r, svc
}

func testBundle(ip string) *entity.Bundle {
	return &entity.Bundle{
		IP: ip,
		ThreatReport: entity.ThreatReport{
			IP:         ip,
			Score:      10,
			Verdict:    "✅ BENIGN",
			ReportText: "narrative",
		},
		Raw: []byte(`{"ip":"` + ip + `"}`),
	}
}

func createSession(t *testing.T, r *chi.Mux, ip string) conversation.Session {
	t.Helper()

	body, _ := json.Marshal(CreateSessionRequest{IP: ip})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var snap conversation.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func waitReady(t *testing.T, svc *conversation.Service, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := svc.GetSession(id)
		return err == nil && snap.State == conversation.StateReady
	}, time.Second, time.Millisecond)
}

func TestCreateSession(t *testing.T) {
	r, _ := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})

	snap := createSession(t, r, "8.8.8.8")
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "8.8.8.8", snap.IP)
	assert.Equal(t, conversation.StateLoading, snap.State)
}

func TestCreateSessionMissingIP(t *testing.T) {
	r, _ := testRouter(&stubLookup{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader([]byte(`{"ip":""}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession(t *testing.T) {
	r, svc := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})
	snap := createSession(t, r, "8.8.8.8")
	waitReady(t, svc, snap.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+snap.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got conversation.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, conversation.StateReady, got.State)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "narrative", got.Messages[0].Text)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := testRouter(&stubLookup{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitMessage(t *testing.T) {
	r, svc := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})
	snap := createSession(t, r, "8.8.8.8")
	waitReady(t, svc, snap.ID)

	body := []byte(`{"text":"where is it located"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+snap.ID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var msg entity.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, entity.RoleUser, msg.Role)
	assert.Equal(t, "where is it located", msg.Text)
}

func TestSubmitMessageBlankIsNoOp(t *testing.T) {
	r, svc := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})
	snap := createSession(t, r, "8.8.8.8")
	waitReady(t, svc, snap.ID)

	body := []byte(`{"text":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+snap.ID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestSubmitMessageWhileBusy(t *testing.T) {
	r, svc := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})
	snap := createSession(t, r, "8.8.8.8")

	// Lookup is still in flight, so the session refuses input.
	body := []byte(`{"text":"too early"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+snap.ID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	waitReady(t, svc, snap.ID)
}

func TestExportReport(t *testing.T) {
	r, svc := testRouter(&stubLookup{bundle: testBundle("8.8.8.8")})
	snap := createSession(t, r, "8.8.8.8")
	waitReady(t, svc, snap.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+snap.ID+"/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="8.8.8.8-report.json"`, rec.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `{"ip":"8.8.8.8"}`, rec.Body.String())
}

func TestExportReportWithoutBundle(t *testing.T) {
	r, svc := testRouter(&stubLookup{err: context.DeadlineExceeded})
	snap := createSession(t, r, "8.8.8.8")
	waitReady(t, svc, snap.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+snap.ID+"/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
