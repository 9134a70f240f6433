package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuba/mat-tutor-server/internal/logger"
	"github.com/kuba/mat-tutor-server/internal/session"
)

func newSessionsRouter(t *testing.T) (*session.Store, http.Handler) {
	t.Helper()
	store := newTestStore(t)
	h := NewSessionsHandler(store, logger.NewNop())

	r := chi.NewRouter()
	r.Get("/api/sessions", h.List)
	r.Get("/api/sessions/{id}", h.Get)
	r.Delete("/api/sessions/{id}", h.Delete)
	return store, r
}

func seedSession(t *testing.T, store *session.Store, id string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Create(&session.ChatSession{
		ID:            id,
		Name:          "Równania kwadratowe",
		State:         session.StateActive,
		CreatedAt:     at,
		LastMessageAt: at,
	}))
}

func TestSessionsListOrdersByActivity(t *testing.T) {
	store, router := newSessionsRouter(t)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedSession(t, store, "older", base)
	seedSession(t, store, "newer", base.Add(time.Hour))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success  bool                  `json:"success"`
		Sessions []session.ChatSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "newer", body.Sessions[0].ID)
	assert.Equal(t, "older", body.Sessions[1].ID)
}

func TestSessionsListEmpty(t *testing.T) {
	_, router := newSessionsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":[]`)
}

func TestSessionsGet(t *testing.T) {
	store, router := newSessionsRouter(t)
	seedSession(t, store, "sess-1", time.Now())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/sess-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                `json:"success"`
		Session session.ChatSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sess-1", body.Session.ID)
	assert.Equal(t, "Równania kwadratowe", body.Session.Name)
}

func TestSessionsGetNotFound(t *testing.T) {
	_, router := newSessionsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/nie-ma", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsDelete(t *testing.T) {
	store, router := newSessionsRouter(t)
	seedSession(t, store, "sess-1", time.Now())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/sess-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSessionsDeleteNotFound(t *testing.T) {
	_, router := newSessionsRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/nie-ma", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
