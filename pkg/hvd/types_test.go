package hvd_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecoding(t *testing.T) {
	t.Parallel()

	t.Run("object metadata", func(t *testing.T) {
		t.Parallel()

		var envelope hvd.Envelope
		require.NoError(t, json.Unmarshal(
			[]byte(`{"type":"sync","metadata":{"name":"c1"}}`), &envelope))

		assert.Equal(t, hvd.ResponseSync, envelope.Type)
		assert.Equal(t, map[string]interface{}{"name": "c1"}, envelope.Metadata)
	})

	t.Run("array metadata", func(t *testing.T) {
		t.Parallel()

		var envelope hvd.Envelope
		require.NoError(t, json.Unmarshal(
			[]byte(`{"type":"sync","metadata":["/1.0/containers/c1"]}`), &envelope))

		assert.Equal(t, []interface{}{"/1.0/containers/c1"}, envelope.Metadata)
	})

	t.Run("error envelope", func(t *testing.T) {
		t.Parallel()

		var envelope hvd.Envelope
		require.NoError(t, json.Unmarshal(
			[]byte(`{"type":"error","error":"not found","error_code":404}`), &envelope))

		assert.Equal(t, hvd.ResponseError, envelope.Type)
		assert.Equal(t, "not found", envelope.Error)
		assert.Equal(t, 404, envelope.ErrorCode)
	})
}

func TestResponse(t *testing.T) {
	t.Parallel()

	t.Run("metadata map", func(t *testing.T) {
		t.Parallel()

		resp := &hvd.Response{Metadata: map[string]interface{}{"name": "c1"}}
		assert.Equal(t, "c1", resp.MetadataMap()["name"])

		listing := &hvd.Response{Metadata: []interface{}{"/1.0/containers/c1"}}
		assert.Nil(t, listing.MetadataMap())
	})

	t.Run("async", func(t *testing.T) {
		t.Parallel()

		assert.True(t, (&hvd.Response{Type: hvd.ResponseAsync}).IsAsync())
		assert.False(t, (&hvd.Response{Type: hvd.ResponseSync}).IsAsync())
	})

	t.Run("stream copy", func(t *testing.T) {
		t.Parallel()

		resp := &hvd.Response{
			Type:   hvd.ResponseRaw,
			Stream: io.NopCloser(strings.NewReader("log line\n")),
		}
		require.True(t, resp.HasStream())

		var buf bytes.Buffer

		n, err := resp.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(9), n)
		assert.Equal(t, "log line\n", buf.String())
	})

	t.Run("no stream", func(t *testing.T) {
		t.Parallel()

		resp := &hvd.Response{Metadata: map[string]interface{}{}}
		require.False(t, resp.HasStream())

		_, err := resp.WriteTo(io.Discard)
		require.ErrorIs(t, err, hvd.ErrNoStream)
	})
}

func TestEventDecoding(t *testing.T) {
	t.Parallel()

	var event hvd.Event
	require.NoError(t, json.Unmarshal([]byte(
		`{"type":"operation","timestamp":"2026-08-29T10:00:00Z","metadata":{"id":"op-1"}}`), &event))

	assert.Equal(t, "operation", event.Type)
	assert.Equal(t, 2026, event.Timestamp.Year())
	assert.Equal(t, "op-1", event.Metadata["id"])
}
