package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"commung/internal/testutil"
)

func TestMetrics_PassesResponseThrough(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		body       string
	}{
		{
			name:       "community listing",
			method:     http.MethodGet,
			path:       "/api/v1/communities",
			statusCode: http.StatusOK,
			body:       `{"communities":[]}`,
		},
		{
			name:       "post creation",
			method:     http.MethodPost,
			path:       "/api/v1/posts",
			statusCode: http.StatusCreated,
			body:       `{"id":"abc"}`,
		},
		{
			name:       "sso redirect",
			method:     http.MethodGet,
			path:       "/auth/sso",
			statusCode: http.StatusFound,
			body:       "",
		},
		{
			name:       "server error",
			method:     http.MethodGet,
			path:       "/api/v1/rooms",
			statusCode: http.StatusInternalServerError,
			body:       `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			testutil.AssertStatusCode(t, w, tt.statusCode)
			testutil.AssertEqual(t, w.Body.String(), tt.body)
		})
	}
}

func TestMetrics_DefaultStatusCodeIsOK(t *testing.T) {
	handler := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit WriteHeader
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
}

func TestMetrics_ResponseWriterExposesHijacker(t *testing.T) {
	// WebSocket upgrades need Hijack to survive the wrapping.
	handler := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Hijacker)
		testutil.AssertTrue(t, ok, "wrapped writer should implement http.Hijacker")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws/rooms/abc", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
}

func TestMetrics_HijackWithoutUnderlyingSupport(t *testing.T) {
	rw := &responseWriter{
		ResponseWriter: &plainResponseWriter{header: make(http.Header)},
		statusCode:     http.StatusOK,
	}

	conn, buf, err := rw.Hijack()

	testutil.AssertError(t, err)
	testutil.AssertTrue(t, conn == nil, "conn should be nil when hijack is unsupported")
	testutil.AssertTrue(t, buf == nil, "buffer should be nil when hijack is unsupported")
}

func TestMetrics_WriteHeaderCapturesStatus(t *testing.T) {
	underlying := &plainResponseWriter{header: make(http.Header)}
	rw := &responseWriter{ResponseWriter: underlying, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusConflict)

	testutil.AssertEqual(t, rw.statusCode, http.StatusConflict)
	testutil.AssertEqual(t, underlying.statusCode, http.StatusConflict)
}

// plainResponseWriter is a minimal writer without Hijacker support.
type plainResponseWriter struct {
	header     http.Header
	statusCode int
}

func (w *plainResponseWriter) Header() http.Header       { return w.header }
func (w *plainResponseWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *plainResponseWriter) WriteHeader(code int)        { w.statusCode = code }
