package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithGzip_Response(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		status         int
		expectGzip     bool
	}{
		{"json accepted", "gzip", "application/json", http.StatusOK, true},
		{"html accepted", "gzip, deflate", "text/html; charset=utf-8", http.StatusCreated, true},
		{"plain text skipped", "gzip", "text/plain", http.StatusOK, false},
		{"no gzip accepted", "", "application/json", http.StatusOK, false},
		{"error status skipped", "gzip", "application/json", http.StatusGone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"result":"ok"}`))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			rec := httptest.NewRecorder()

			WithGzip(handler).ServeHTTP(rec, req)
			resp := rec.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			var body io.Reader = resp.Body
			if tt.expectGzip {
				require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
				gr, err := gzip.NewReader(resp.Body)
				require.NoError(t, err)
				defer gr.Close()
				body = gr
			} else {
				assert.Empty(t, resp.Header.Get("Content-Encoding"))
			}

			b, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, `{"result":"ok"}`, string(b))
		})
	}
}

func TestWithGzip_RedirectPassesThrough(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://example.com", http.StatusTemporaryRedirect)
	})

	req := httptest.NewRequest(http.MethodGet, "/abc1234", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	WithGzip(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestWithGzip_Request(t *testing.T) {
	t.Run("valid gzip request", func(t *testing.T) {
		var bodyBuf bytes.Buffer
		gzw := gzip.NewWriter(&bodyBuf)
		_, _ = gzw.Write([]byte("https://example.com/long"))
		gzw.Close()

		req := httptest.NewRequest(http.MethodPost, "/", &bodyBuf)
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(t, "https://example.com/long", string(b))
			w.WriteHeader(http.StatusCreated)
		})

		WithGzip(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("invalid gzip request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip data"))
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called on invalid gzip")
		})

		WithGzip(handler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to decompress")
	})
}
