package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWriteJSON_EncodeFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	rec := httptest.NewRecorder()

	// Channels are not JSON-serialisable, forcing an encode failure
	// after the status line is written.
	writeJSON(rec, http.StatusOK, make(chan int), logger)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "failed to encode response")
}

func TestWriteJSON_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]string{"status": "ok"}, logger)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Empty(t, buf.String())
}
