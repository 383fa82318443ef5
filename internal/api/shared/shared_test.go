package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 32)
	assert.NotEqual(t, traceID, GetTraceID(SetTraceID(context.Background())))
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body["count"])
}

func TestRespondWithErrorAndLog(t *testing.T) {
	log, buf := logger.NewCaptureLogger()
	ctx := context.WithValue(logger.WithLogger(context.Background(), log), TraceIDKey, "test-trace-id")
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "Failed to list notifications",
		errors.New("dial postgres://app:s3cret@db:5432/tasks failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to list notifications", resp.Error)
	assert.Equal(t, "test-trace-id", resp.TraceID)

	logged := buf.String()
	assert.Contains(t, logged, "API error response")
	assert.Contains(t, logged, `"level":"ERROR"`)
	assert.NotContains(t, logged, "s3cret")
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid request", resp.Error)
	assert.Empty(t, resp.TraceID)
}

type limitRequest struct {
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

func TestDecodeAndValidate(t *testing.T) {
	decode := func(body string) (limitRequest, error) {
		var v limitRequest
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, &v)
		return v, err
	}

	v, err := decode(`{"limit": 10}`)
	require.NoError(t, err)
	assert.NoError(t, ValidateRequest(v))

	v, err = decode(`{"limit": 500}`)
	require.NoError(t, err)
	assert.Error(t, ValidateRequest(v))

	_, err = decode(`{"limit": 1, "extra": true}`)
	assert.Error(t, err)

	_, err = decode(`not json`)
	assert.Error(t, err)
}
