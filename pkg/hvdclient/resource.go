package hvdclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// Resource represents one addressable API entity and its last-known state.
//
// A Resource is a handle: constructing one performs no network call. The
// cached detail snapshot is populated by Read, by a recursive collection
// listing, or by related-resource expansion, and is only ever exposed as
// independent copies.
//
// Concurrent use of the same Resource is not synchronized; the If-Match
// precondition protects against lost updates at the server, local snapshot
// races are the caller's to serialize.
type Resource struct {
	remote *Remote
	kind   *Kind

	uri     string
	etag    string
	details map[string]interface{}
}

func newResource(remote *Remote, kind *Kind, uri string) *Resource {
	return &Resource{remote: remote, kind: kind, uri: uri}
}

func (r *Resource) clone() *Resource {
	return &Resource{
		remote:  r.remote,
		kind:    r.kind,
		uri:     r.uri,
		etag:    r.etag,
		details: deepCopyDetails(r.details),
	}
}

// URI returns the resource URI.
func (r *Resource) URI() string {
	return r.uri
}

// Kind returns the resource kind.
func (r *Resource) Kind() *Kind {
	return r.kind
}

// ID returns the unique identifier for the resource, derived from the final
// URI path segment.
func (r *Resource) ID() string {
	segment := r.uri[strings.LastIndex(r.uri, "/")+1:]

	id, err := url.PathUnescape(segment)
	if err != nil {
		return segment
	}

	return id
}

// LastETag returns the concurrency token from the most recent successful
// response, or the empty string.
func (r *Resource) LastETag() string {
	return r.etag
}

// Details returns an independent copy of the cached detail snapshot.
// It fails with ErrNoDetails until a read (or an equivalent
// snapshot-population call) has completed.
func (r *Resource) Details() (map[string]interface{}, error) {
	if len(r.details) == 0 {
		return nil, fmt.Errorf("%w: %s", hvd.ErrNoDetails, r.uri)
	}

	return deepCopyDetails(r.details), nil
}

// Detail returns an independent copy of a single field from the cached
// snapshot.
func (r *Resource) Detail(key string) (interface{}, error) {
	if len(r.details) == 0 {
		return nil, fmt.Errorf("%w: %s", hvd.ErrNoDetails, r.uri)
	}

	value, ok := r.details[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", hvd.ErrDetailNotFound, key)
	}

	return deepCopyValue(value), nil
}

// SetDetails seeds the cached snapshot from a raw detail payload, applying
// related-resource expansion. The concurrency token is reset: injected
// details carry no token.
func (r *Resource) SetDetails(details map[string]interface{}) {
	r.etag = ""
	r.details = deepCopyDetails(details)
	r.expandRelated(r.details)
}

// Read fetches the resource, replacing the cached snapshot and concurrency
// token and re-running related-resource expansion.
func (r *Resource) Read(ctx context.Context) (*hvd.Response, error) {
	return r.read(ctx, nil)
}

// ReadWithSecret fetches an otherwise-restricted resource using an access
// secret (images shared with untrusted clients).
func (r *Resource) ReadWithSecret(ctx context.Context, secret string) (*hvd.Response, error) {
	params := url.Values{}
	params.Set(constants.ParamSecret, secret)

	return r.read(ctx, params)
}

func (r *Resource) read(ctx context.Context, params url.Values) (*hvd.Response, error) {
	resp, err := r.remote.Request(ctx, http.MethodGet, r.uri, params, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.uri, err)
	}

	r.processResponse(resp)

	return resp, nil
}

// RequestOption adjusts a single mutation call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	skipETag bool
}

// WithoutETag skips the If-Match concurrency precondition for one call.
func WithoutETag() RequestOption {
	return func(o *requestOptions) {
		o.skipETag = true
	}
}

// Update applies a partial change via PATCH. The last-seen concurrency
// token is sent as an If-Match precondition unless WithoutETag is given.
// The cached snapshot is not modified; issue a Read to refresh it.
func (r *Resource) Update(ctx context.Context, details interface{}, opts ...RequestOption) (*hvd.Response, error) {
	resp, err := r.mutate(ctx, http.MethodPatch, details, opts)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", r.uri, err)
	}

	return resp, nil
}

// Replace substitutes the full resource configuration via PUT, with the
// same concurrency semantics as Update.
func (r *Resource) Replace(ctx context.Context, details interface{}, opts ...RequestOption) (*hvd.Response, error) {
	resp, err := r.mutate(ctx, http.MethodPut, details, opts)
	if err != nil {
		return nil, fmt.Errorf("replacing %s: %w", r.uri, err)
	}

	return resp, nil
}

func (r *Resource) mutate(ctx context.Context, method string, details interface{}, opts []RequestOption) (*hvd.Response, error) {
	options := requestOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var headers map[string]string
	if !options.skipETag && r.etag != "" {
		headers = map[string]string{constants.HeaderIfMatch: r.etag}
	}

	resp, err := r.remote.Request(ctx, method, r.uri, nil, headers, details)
	if err != nil {
		return nil, err
	}

	if resp.ETag != "" {
		r.etag = resp.ETag
	}

	return resp, nil
}

// Delete removes the resource. The cached snapshot is left in place; the
// handle simply refers to a gone entity afterwards.
func (r *Resource) Delete(ctx context.Context) (*hvd.Response, error) {
	resp, err := r.remote.Request(ctx, http.MethodDelete, r.uri, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", r.uri, err)
	}

	return resp, nil
}

// Rename gives the resource a new name. On success the handle adopts the
// server-reported creation location as its URI; the previously cached
// snapshot is dropped since it described the old identity.
func (r *Resource) Rename(ctx context.Context, name string) (*hvd.Response, error) {
	if !r.kind.renamable {
		return nil, fmt.Errorf("%w: %s", hvd.ErrNotRenamable, r.kind.name)
	}

	resp, err := r.remote.Request(ctx, http.MethodPost, r.uri, nil, nil, map[string]interface{}{"name": name})
	if err != nil {
		return nil, fmt.Errorf("renaming %s: %w", r.uri, err)
	}

	r.processResponse(resp)

	if resp.Location != "" {
		r.uri = resp.Location
	}

	return resp, nil
}

// Sub returns a nested collection of the resource (container logs and
// snapshots).
func (r *Resource) Sub(name string) (*Collection, error) {
	kind, ok := r.kind.subs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q collection", hvd.ErrDetailNotFound, r.kind.name, name)
	}

	return newCollection(r.remote, kind, r.uri+"/"+name), nil
}

// Secret creates an access secret for an image, returning the background
// operation carrying it.
func (r *Resource) Secret(ctx context.Context) (*Operation, error) {
	return r.subOperation(ctx, "secret")
}

// Refresh updates an image from its origin, returning the background
// operation performing the refresh.
func (r *Resource) Refresh(ctx context.Context) (*Operation, error) {
	return r.subOperation(ctx, "refresh")
}

func (r *Resource) subOperation(ctx context.Context, action string) (*Operation, error) {
	resp, err := r.remote.Request(ctx, http.MethodPost, r.uri+"/"+action, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, r.uri, err)
	}

	operation, err := operationFromResponse(r.remote, resp)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, r.uri, err)
	}

	return operation, nil
}

// PoolResources returns usage information for a storage pool.
func (r *Resource) PoolResources(ctx context.Context) (map[string]interface{}, error) {
	resp, err := r.remote.Request(ctx, http.MethodGet, r.uri+"/resources", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s resources: %w", r.uri, err)
	}

	return resp.MetadataMap(), nil
}

// processResponse adopts the snapshot and concurrency token from a fresh
// response payload. Expansion runs once, on the stored copy.
func (r *Resource) processResponse(resp *hvd.Response) {
	r.etag = resp.ETag
	r.details = deepCopyDetails(resp.MetadataMap())
	r.expandRelated(r.details)
}

// expandRelated rewrites embedded resource references in a detail payload
// into typed handles, per the kind's rules. Rules whose key path is absent
// or empty are skipped silently; payloads from partial listings regularly
// omit related fields.
func (r *Resource) expandRelated(details map[string]interface{}) {
	if len(r.kind.related) == 0 || len(details) == 0 {
		return
	}

	for _, rule := range r.kind.related {
		parent := details

		var entry interface{} = details

		for _, key := range rule.Path {
			parentMap, ok := entry.(map[string]interface{})
			if !ok {
				entry = nil

				break
			}

			parent = parentMap
			entry = parentMap[key]

			if entry == nil {
				break
			}
		}

		if entry == nil || isEmpty(entry) {
			continue
		}

		lastKey := rule.Path[len(rule.Path)-1]

		if list, ok := entry.([]interface{}); ok {
			for i, item := range list {
				list[i] = rule.Factory(r.remote, item)
			}
		} else {
			parent[lastKey] = rule.Factory(r.remote, entry)
		}
	}
}

func isEmpty(value interface{}) bool {
	switch val := value.(type) {
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}
