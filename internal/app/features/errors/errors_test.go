package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.Body {
	t.Helper()
	var b uierrors.Body
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&b))
	return b
}

func TestRenderNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/leads/x", nil)
	uierrors.RenderNotFound(rec, req, "Lead not found.", "/leads")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	b := decode(t, rec)
	require.Equal(t, "Lead not found.", b.Error)
	require.Equal(t, "/leads", b.BackURL)
}

func TestRenderUnauthorized_DefaultsToLogin(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.RenderUnauthorized(rec, httptest.NewRequest(http.MethodGet, "/deals", nil), "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "/login", decode(t, rec).BackURL)
}

func TestErrorLogger_LogServerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	el.LogServerError(rec, req, "find accounts failed", errors.New("boom"), "A database error occurred.", "/")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "A database error occurred.", decode(t, rec).Error)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "find accounts failed", entry.Message)
	require.Equal(t, "/accounts", entry.ContextMap()["path"])
}

func TestErrorLogger_NilLoggerIsSafe(t *testing.T) {
	el := uierrors.NewErrorLogger(nil)
	rec := httptest.NewRecorder()
	el.LogBadRequest(rec, httptest.NewRequest(http.MethodPost, "/leads", nil), "bad form", nil, "Invalid form data.", "/leads")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
