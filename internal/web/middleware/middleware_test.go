package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/cleaner/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "no trusted proxies ignores headers",
			remote:  "10.0.0.1:1234",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "10.0.0.1:1234",
		},
		{
			name:    "trusted cidr uses x-real-ip",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.0.0.1:1234",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "trusted single address uses first forwarded",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.2"},
			want:    "5.6.7.8",
		},
		{
			name:    "untrusted source keeps remote",
			trusted: []string{"10.0.0.0/8"},
			remote:  "192.168.1.1:80",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "192.168.1.1:80",
		},
		{
			name:    "invalid header keeps remote",
			trusted: []string{"10.0.0.0/8", "garbage"},
			remote:  "10.1.1.1:80",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.1.1:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = w.Write([]byte("Unsupported file format"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/upload")
	assert.Contains(t, out, "status=415")
	assert.Contains(t, out, "bytes=23")
}

func TestAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		keys []string
		key  string
		want int
	}{
		{name: "disabled", keys: nil, key: "", want: http.StatusNoContent},
		{name: "missing", keys: []string{"0123456789abcdef"}, key: "", want: http.StatusUnauthorized},
		{name: "invalid", keys: []string{"0123456789abcdef"}, key: "nope", want: http.StatusForbidden},
		{name: "valid second key", keys: []string{"0123456789abcdef", "fedcba9876543210"}, key: "fedcba9876543210", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/clean", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			APIKey(tt.keys)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
