package response

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestJSON_SuccessFollowsStatus(t *testing.T) {
	tests := []struct {
		status      int
		wantSuccess bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, true},
		{http.StatusNoContent, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
		{http.StatusGone, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.status, nil, discardLogger())

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantSuccess, decodeEnvelope(t, w).Success)
		})
	}
}

func TestJSON_CarriesData(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"id": "fil-1", "name": "notes.txt"}, discardLogger())

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fil-1", data["id"])
	assert.Equal(t, "notes.txt", data["name"])
}

func TestJSON_NilLoggerIsSafe(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, "ok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeEnvelope(t, w).Success)
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]string{"id": "fil-new"}, discardLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantError  string
	}{
		{
			"bad request",
			func(w http.ResponseWriter) { BadRequest(w, "file too large", discardLogger()) },
			http.StatusBadRequest, "file too large",
		},
		{
			"unauthorized",
			func(w http.ResponseWriter) { Unauthorized(w, "authentication required", discardLogger()) },
			http.StatusUnauthorized, "authentication required",
		},
		{
			"forbidden",
			func(w http.ResponseWriter) { Forbidden(w, "not a member of this space", discardLogger()) },
			http.StatusForbidden, "not a member of this space",
		},
		{
			"not found",
			func(w http.ResponseWriter) { NotFound(w, "file not found", discardLogger()) },
			http.StatusNotFound, "file not found",
		},
		{
			"too many requests",
			func(w http.ResponseWriter) { TooManyRequests(w, "slow down", discardLogger()) },
			http.StatusTooManyRequests, "slow down",
		},
		{
			"internal",
			func(w http.ResponseWriter) { InternalError(w, "internal server error", discardLogger()) },
			http.StatusInternalServerError, "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
			assert.Nil(t, env.Data)
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.Forbidden("only the vault owner can share it"), discardLogger())

	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "only the vault owner can share it", env.Error)
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := fmt.Errorf("upload: %w", domainerrors.Validationf("file %q exceeds the 10 MB limit", "big.bin"))
	HandleError(w, wrapped, discardLogger())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleError_StoreError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, store.ErrNotFound.WithMessage("file not found"), discardLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestHandleError_UnknownErrorIs500(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, fmt.Errorf("disk on fire"), discardLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "internal server error", env.Error, "internal details must not leak")
}

func TestEnvelope_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Envelope{Success: true, Data: "x"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
	assert.NotContains(t, string(data), `"message"`)

	data, err = json.Marshal(Envelope{Success: false, Error: "nope"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
}
