package commands

import (
	"path/filepath"
	"testing"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestPrintable(t *testing.T) {
	remote, err := hvdclient.New(&hvd.Config{Address: "unix://"})
	require.NoError(t, err)

	container := remote.Containers().GetHandle("c1")

	value := printable(map[string]interface{}{
		"name":    "default",
		"used_by": []interface{}{container},
		"nested":  map[string]interface{}{"count": float64(2)},
	})

	payload, ok := value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"/1.0/containers/c1"}, payload["used_by"])
	assert.Equal(t, float64(2), payload["nested"].(map[string]interface{})["count"])
}

func TestSnapshotWithoutDetails(t *testing.T) {
	remote, err := hvdclient.New(&hvd.Config{Address: "unix://"})
	require.NoError(t, err)

	payload := snapshot(remote.Containers().GetHandle("c1"))
	assert.Equal(t, map[string]interface{}{"uri": "/1.0/containers/c1"}, payload)
}

func TestResolveRemote(t *testing.T) {
	t.Run("explicit address wins", func(t *testing.T) {
		resetViper(t)
		viper.Set("address", "https://hv1.example.com:8443")
		viper.Set("remote", "ignored")

		entry, err := resolveRemote()
		require.NoError(t, err)
		assert.Equal(t, "https://hv1.example.com:8443", entry.Addr)
	})

	t.Run("named remote from the remotes file", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		viper.SetConfigFile(filepath.Join(dir, "config.yml"))
		viper.Set("remote", "prod")

		require.NoError(t, saveRemotes(filepath.Join(dir, "remotes.yml"), &remotesConfig{
			DefaultRemote: "dev",
			Remotes: map[string]remoteEntry{
				"dev":  {Addr: "unix://"},
				"prod": {Addr: "https://hv1.example.com:8443", SkipTLSVerify: true},
			},
		}))

		entry, err := resolveRemote()
		require.NoError(t, err)
		assert.Equal(t, "https://hv1.example.com:8443", entry.Addr)
		assert.True(t, entry.SkipTLSVerify)
	})

	t.Run("falls back to the default remote", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		viper.SetConfigFile(filepath.Join(dir, "config.yml"))

		require.NoError(t, saveRemotes(filepath.Join(dir, "remotes.yml"), &remotesConfig{
			DefaultRemote: "dev",
			Remotes:       map[string]remoteEntry{"dev": {Addr: "unix:///run/hvd.socket"}},
		}))

		entry, err := resolveRemote()
		require.NoError(t, err)
		assert.Equal(t, "unix:///run/hvd.socket", entry.Addr)
	})

	t.Run("local socket when nothing is configured", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		viper.SetConfigFile(filepath.Join(dir, "config.yml"))

		entry, err := resolveRemote()
		require.NoError(t, err)
		assert.Equal(t, "unix://", entry.Addr)
	})

	t.Run("unknown remote name", func(t *testing.T) {
		resetViper(t)

		dir := t.TempDir()
		viper.SetConfigFile(filepath.Join(dir, "config.yml"))
		viper.Set("remote", "missing")

		_, err := resolveRemote()
		require.ErrorIs(t, err, ErrRemoteNotConfigured)
	})
}

func TestRemotesConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotes.yml")

	saved := &remotesConfig{
		DefaultRemote: "dev",
		Remotes: map[string]remoteEntry{
			"dev": {Addr: "unix://"},
			"prod": {
				Addr:       "https://hv1.example.com:8443",
				ServerCert: "/etc/hvc/server.crt",
				ClientCert: "/etc/hvc/client.crt",
				ClientKey:  "/etc/hvc/client.key",
			},
		},
	}
	require.NoError(t, saveRemotes(path, saved))

	resetViper(t)
	viper.SetConfigFile(filepath.Join(filepath.Dir(path), "config.yml"))

	loaded, loadedPath, err := loadRemotes()
	require.NoError(t, err)
	assert.Equal(t, path, loadedPath)
	assert.Equal(t, saved, loaded)
}

func TestLoadRemotesMissingFile(t *testing.T) {
	resetViper(t)
	viper.SetConfigFile(filepath.Join(t.TempDir(), "config.yml"))

	config, _, err := loadRemotes()
	require.NoError(t, err)
	assert.Empty(t, config.DefaultRemote)
	assert.Empty(t, config.Remotes)
}
