package hvdclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/stretchr/testify/require"
)

// newTestRemote starts a TLS test server and returns an open session
// against it.
func newTestRemote(t *testing.T, handler http.Handler) (*hvdclient.Remote, *httptest.Server) {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	remote, err := hvdclient.New(&hvd.Config{
		Address:            server.URL,
		InsecureSkipVerify: true,
	})
	require.NoError(t, err)
	require.NoError(t, remote.Open())

	t.Cleanup(func() { _ = remote.Close() })

	return remote, server
}

func writeSync(t *testing.T, w http.ResponseWriter, metadata interface{}) {
	t.Helper()
	writeEnvelope(t, w, http.StatusOK, "sync", metadata)
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, respType string, metadata interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"type":     respType,
		"metadata": metadata,
	})
	require.NoError(t, err)
}
