package transport_test

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hvd-io/hvd-client/internal/endpoint"
	"github.com/hvd-io/hvd-client/internal/transport"
	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger collects log entries for assertions.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) log(level, msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.log("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.log("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.log("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.log("error", msg, fields) }

func writeEnvelope(w http.ResponseWriter, status int, envelope map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func newTestClient(t *testing.T, handler http.Handler, opts ...transport.Option) (*transport.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	remote, err := endpoint.Parse(server.URL)
	require.NoError(t, err)

	//nolint:gosec // test server certificate
	return transport.NewClient(remote, &tls.Config{InsecureSkipVerify: true}, opts...), server
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful sync request", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/1.0/containers/c1", r.URL.Path)
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))

			w.Header().Set("ETag", "abc123")
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"type":     "sync",
				"metadata": map[string]interface{}{"name": "c1"},
			})
		}))

		resp, err := client.Get(context.Background(), "/1.0/containers/c1", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, hvd.ResponseSync, resp.Type)
		assert.Equal(t, "abc123", resp.ETag)
		assert.Equal(t, map[string]interface{}{"name": "c1"}, resp.Metadata)
		assert.False(t, resp.HasStream())
	})

	t.Run("async response exposes location", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "c1", body["name"])

			w.Header().Set("Location", "/1.0/operations/op-1")
			writeEnvelope(w, http.StatusAccepted, map[string]interface{}{
				"type":     "async",
				"metadata": map[string]interface{}{"id": "op-1"},
			})
		}))

		resp, err := client.Post(context.Background(), "/1.0/containers", map[string]interface{}{"name": "c1"})
		require.NoError(t, err)
		assert.True(t, resp.IsAsync())
		assert.Equal(t, "/1.0/operations/op-1", resp.Location)
	})

	t.Run("query parameters", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "recursion=1", r.URL.RawQuery)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"type": "sync", "metadata": []interface{}{}})
		}))

		params := url.Values{}
		params.Set("recursion", "1")

		_, err := client.Get(context.Background(), "/1.0/containers", params)
		require.NoError(t, err)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "etag-1", r.Header.Get("If-Match"))
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"type": "sync", "metadata": map[string]interface{}{}})
		}))

		_, err := client.Do(context.Background(), &transport.Request{
			Method:  "PATCH",
			Path:    "/1.0/containers/c1",
			Headers: map[string]string{"If-Match": "etag-1"},
			Content: map[string]interface{}{"config": map[string]interface{}{}},
		})
		require.NoError(t, err)
	})

	t.Run("API error overrides HTTP status", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusBadRequest, map[string]interface{}{
				"type":       "error",
				"error":      "container already exists",
				"error_code": 409,
			})
		}))

		resp, err := client.Post(context.Background(), "/1.0/containers", map[string]interface{}{})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		apiErr := &hvd.APIError{}
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 409, apiErr.Code)
		assert.Equal(t, "container already exists", apiErr.Message)
	})

	t.Run("plain HTTP error", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
		}))

		resp, err := client.Get(context.Background(), "/1.0", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

		statusErr := &hvd.StatusError{}
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusGatewayTimeout, statusErr.StatusCode)
	})

	t.Run("raw stream response", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("log line\n"))
		}))

		resp, err := client.Get(context.Background(), "/1.0/containers/c1/logs/hvd.log", nil)
		require.NoError(t, err)
		require.True(t, resp.HasStream())
		assert.Equal(t, hvd.ResponseRaw, resp.Type)
		assert.Nil(t, resp.Metadata)

		data, err := io.ReadAll(resp.Stream)
		require.NoError(t, err)
		require.NoError(t, resp.Stream.Close())
		assert.Equal(t, "log line\n", string(data))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		logger := &MockLogger{}
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"type": "sync", "metadata": map[string]interface{}{}})
		}), transport.WithLogger(logger), transport.WithDebug(true))

		_, err := client.Get(context.Background(), "/1.0", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

func TestClient_Uploads(t *testing.T) {
	t.Parallel()

	t.Run("upload from file path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "image.tar.xz")
		require.NoError(t, os.WriteFile(path, []byte("image-bits"), 0o600))

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "image-bits", string(data))

			writeEnvelope(w, http.StatusOK, map[string]interface{}{"type": "sync", "metadata": map[string]interface{}{}})
		}))

		_, err := client.Do(context.Background(), &transport.Request{
			Method:     "POST",
			Path:       "/1.0/images",
			UploadPath: path,
		})
		require.NoError(t, err)
	})

	t.Run("content and upload are exclusive", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.NewServeMux())

		_, err := client.Do(context.Background(), &transport.Request{
			Method:     "POST",
			Path:       "/1.0/images",
			Content:    map[string]interface{}{},
			UploadPath: "/nonexistent",
		})
		require.ErrorIs(t, err, transport.ErrBodyConflict)
	})
}

func TestClient_UnixSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "hvd.socket")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/1.0", r.URL.Path)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"type":     "sync",
				"metadata": map[string]interface{}{"api_status": "stable"},
			})
		}),
	}

	go func() { _ = server.Serve(listener) }()

	t.Cleanup(func() { _ = server.Close() })

	remote, err := endpoint.Parse("unix://" + socketPath)
	require.NoError(t, err)

	client := transport.NewClient(remote, nil)

	resp, err := client.Get(context.Background(), "/1.0", nil)
	require.NoError(t, err)
	assert.Equal(t, "stable", resp.MetadataMap()["api_status"])
}

func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.Get(context.Background(), "/1.0", nil)
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on 5xx when configured", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusInternalServerError)

				return
			}

			writeEnvelope(w, http.StatusOK, map[string]interface{}{"type": "sync", "metadata": map[string]interface{}{}})
		}), transport.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/1.0", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 3, attempts)
	})
}

func TestTLSConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty config yields nil", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := transport.TLSConfig(&hvd.Config{Address: "https://example.com"})
		require.NoError(t, err)
		assert.Nil(t, tlsConfig)
	})

	t.Run("skip verify", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := transport.TLSConfig(&hvd.Config{Address: "https://example.com", InsecureSkipVerify: true})
		require.NoError(t, err)
		require.NotNil(t, tlsConfig)
		assert.True(t, tlsConfig.InsecureSkipVerify)
	})

	t.Run("missing server certificate file", func(t *testing.T) {
		t.Parallel()

		_, err := transport.TLSConfig(&hvd.Config{
			Address:    "https://example.com",
			ServerCert: "/nonexistent/server.crt",
		})
		require.Error(t, err)
	})

	t.Run("malformed server certificate", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "server.crt")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := transport.TLSConfig(&hvd.Config{Address: "https://example.com", ServerCert: path})
		require.ErrorIs(t, err, transport.ErrReadServerPEM)
	})
}
