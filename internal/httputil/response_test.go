package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, "Task added Successfully", http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, Response{Success: true, Message: "Task added Successfully"}, decode(t, rec))
}

func TestRespondErrorNeverReportsSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, "Please enter all fields", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, Response{Success: false, Message: "Please enter all fields"}, decode(t, rec))
}

func TestRespondInternalErrorCarriesRawMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondInternalError(rec, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "connection refused", resp.Message)
}
