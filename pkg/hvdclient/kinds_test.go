package hvdclient

import (
	"testing"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRemote(t *testing.T) *Remote {
	t.Helper()

	remote, err := New(&hvd.Config{Address: "unix://"})
	require.NoError(t, err)

	return remote
}

func TestNewKind(t *testing.T) {
	t.Parallel()

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		_, err := newKind(KindConfig{})
		require.ErrorIs(t, err, ErrKindName)
	})

	t.Run("validates related rules", func(t *testing.T) {
		t.Parallel()

		_, err := newKind(KindConfig{
			Name:    "broken",
			Related: []RelatedRule{{Path: []string{"used_by"}}},
		})
		require.ErrorIs(t, err, ErrKindRuleFactory)

		_, err = newKind(KindConfig{
			Name:    "broken",
			Related: []RelatedRule{{Factory: kindFactory(containerKind)}},
		})
		require.ErrorIs(t, err, ErrKindRuleFactory)
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		kind, err := newKind(KindConfig{Name: "widget", IDAttribute: "name", Renamable: true})
		require.NoError(t, err)
		assert.Equal(t, "widget", kind.Name())
		assert.True(t, kind.Renamable())
	})
}

func TestKind_IDFromDetails(t *testing.T) {
	t.Parallel()

	t.Run("plain attribute", func(t *testing.T) {
		t.Parallel()

		id, err := containerKind.idFromDetails(map[string]interface{}{"name": "c1"})
		require.NoError(t, err)
		assert.Equal(t, "c1", id)
	})

	t.Run("non-string attribute is stringified", func(t *testing.T) {
		t.Parallel()

		id, err := operationKind.idFromDetails(map[string]interface{}{"id": float64(42)})
		require.NoError(t, err)
		assert.Equal(t, "42", id)
	})

	t.Run("compound identifier trimming", func(t *testing.T) {
		t.Parallel()

		id, err := snapshotKind.idFromDetails(map[string]interface{}{"name": "c1/snap0"})
		require.NoError(t, err)
		assert.Equal(t, "snap0", id)
	})

	t.Run("kind without identifier", func(t *testing.T) {
		t.Parallel()

		_, err := logfileKind.idFromDetails(map[string]interface{}{"name": "hvd.log"})
		require.ErrorIs(t, err, ErrKindNoID)
	})

	t.Run("missing attribute", func(t *testing.T) {
		t.Parallel()

		_, err := containerKind.idFromDetails(map[string]interface{}{"status": "Running"})
		require.ErrorIs(t, err, ErrKindNoID)
	})
}

func TestKindFactory(t *testing.T) {
	t.Parallel()

	remote := testRemote(t)
	factory := kindFactory(containerKind)

	resource, ok := factory(remote, "/1.0/containers/c1").(*Resource)
	require.True(t, ok)
	assert.Equal(t, "/1.0/containers/c1", resource.URI())
	assert.Equal(t, containerKind, resource.Kind())

	// non-string references pass through untouched
	assert.Equal(t, float64(3), factory(remote, float64(3)))
}

func TestUsedByFactory(t *testing.T) {
	t.Parallel()

	remote := testRemote(t)

	t.Run("resolves known collections", func(t *testing.T) {
		t.Parallel()

		for uri, kind := range map[string]*Kind{
			"/1.0/containers/c1":    containerKind,
			"/1.0/images/abcd1234":  imageKind,
			"/1.0/profiles/default": profileKind,
		} {
			resource, ok := usedByFactory(remote, uri).(*Resource)
			require.True(t, ok, uri)
			assert.Equal(t, uri, resource.URI())
			assert.Equal(t, kind, resource.Kind())
		}
	})

	t.Run("passes unknown references through", func(t *testing.T) {
		t.Parallel()

		value := usedByFactory(remote, "/1.0/unknowns/x")
		assert.Equal(t, "/1.0/unknowns/x", value)
	})
}

func TestDeepCopyDetails(t *testing.T) {
	t.Parallel()

	remote := testRemote(t)
	original := map[string]interface{}{
		"name": "c1",
		"devices": map[string]interface{}{
			"root": map[string]interface{}{"path": "/"},
		},
		"used_by": []interface{}{
			newResource(remote, containerKind, "/1.0/containers/c1"),
		},
	}

	copied := deepCopyDetails(original)
	require.Equal(t, "c1", copied["name"])

	copied["devices"].(map[string]interface{})["root"].(map[string]interface{})["path"] = "/mnt"
	assert.Equal(t, "/", original["devices"].(map[string]interface{})["root"].(map[string]interface{})["path"])

	// embedded handles are cloned, not shared
	clonedHandle := copied["used_by"].([]interface{})[0].(*Resource)
	originalHandle := original["used_by"].([]interface{})[0].(*Resource)
	assert.NotSame(t, originalHandle, clonedHandle)
	assert.Equal(t, originalHandle.URI(), clonedHandle.URI())
}

func TestFlattenOperations(t *testing.T) {
	t.Parallel()

	entries := flattenOperations(map[string]interface{}{
		"Pending": []interface{}{"/1.0/operations/op-9"},
		"Success": []interface{}{"/1.0/operations/op-2"},
		"Running": []interface{}{"/1.0/operations/op-1"},
	})

	// known statuses in a fixed order, unknown ones after
	assert.Equal(t, []interface{}{
		"/1.0/operations/op-1",
		"/1.0/operations/op-2",
		"/1.0/operations/op-9",
	}, entries)

	assert.Nil(t, flattenOperations([]interface{}{"/1.0/operations/op-1"}))
	assert.Nil(t, flattenOperations(nil))
}
