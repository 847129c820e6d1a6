package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false).WithFields(map[string]any{"user_id": "u-1"})

	logger.Info("task added", "task_id", "t-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "task added", entry["msg"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "t-1", entry["task_id"])
}

func TestProductionLoggerSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)

	logger.Debug("noise")

	assert.Empty(t, buf.String())
}

func TestGetLoggerFromContextFallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))
}

func TestRequestLoggerStoresLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, false)

	var fromCtx *Logger
	h := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	require.NotNil(t, fromCtx)
	assert.NotSame(t, base, fromCtx)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":400`)
}
