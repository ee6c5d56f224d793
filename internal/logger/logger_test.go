package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("not-a-level"))
	assert.NoError(t, Init("debug"))
}

func TestLoggingMiddlewareGeneratesRequestID(t *testing.T) {
	require.NoError(t, Init("info"))

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		response.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}

func TestLoggingMiddlewareEchoesIncomingRequestID(t *testing.T) {
	require.NoError(t, Init("info"))

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		response.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-Id", "incoming-request-id")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, "incoming-request-id", recorder.Header().Get("X-Request-Id"))
}
