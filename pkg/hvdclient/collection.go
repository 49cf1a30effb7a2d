package hvdclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// Static errors for err113 compliance.
var (
	ErrUnexpectedListing = errors.New("unexpected listing content")
)

// Collection enumerates, fetches, and creates resources of one kind under a
// base path. Every resource it constructs has a URI below its base URI.
type Collection struct {
	remote *Remote
	kind   *Kind
	uri    string
	raw    bool

	// flatten post-processes raw listing content into a flat list before
	// resource construction (operations listings are keyed by status).
	flatten func(content interface{}) []interface{}
}

func newCollection(remote *Remote, kind *Kind, uri string) *Collection {
	return &Collection{remote: remote, kind: kind, uri: uri}
}

// URI returns the collection base URI.
func (c *Collection) URI() string {
	return c.uri
}

// Kind returns the kind of the collection's resources.
func (c *Collection) Kind() *Kind {
	return c.kind
}

// Raw returns a copy of the collection whose Create passes the response
// metadata through instead of constructing a typed handle.
func (c *Collection) Raw() *Collection {
	copied := *c
	copied.raw = true

	return &copied
}

// CreateResult is the outcome of Collection.Create. Exactly one of
// Resource, Operation, and Metadata is populated: a synchronous response
// yields the created resource, an asynchronous response yields the
// background operation performing the creation, and raw mode yields the
// unprocessed response metadata.
type CreateResult struct {
	Resource  *Resource
	Operation *Operation
	Metadata  interface{}

	// Response is the full response the result was built from.
	Response *hvd.Response
}

// Create adds a new resource to the collection.
func (c *Collection) Create(ctx context.Context, details interface{}) (*CreateResult, error) {
	resp, err := c.remote.Request(ctx, http.MethodPost, c.uri, nil, nil, details)
	if err != nil {
		return nil, fmt.Errorf("creating %s resource: %w", c.kind.name, err)
	}

	result := &CreateResult{Response: resp}

	switch {
	case c.raw:
		result.Metadata = resp.Metadata

	case resp.IsAsync():
		operation, err := operationFromResponse(c.remote, resp)
		if err != nil {
			return nil, fmt.Errorf("creating %s resource: %w", c.kind.name, err)
		}

		result.Operation = operation

	default:
		result.Resource = newResource(c.remote, c.kind, resp.Location)
	}

	return result, nil
}

// Read lists the collection. In non-recursive mode the server returns only
// member URIs and the returned handles have empty snapshots; in recursive
// mode a single request inlines full details for every member and the
// returned resources are pre-populated, with related-resource rules already
// applied.
func (c *Collection) Read(ctx context.Context, recursive bool) ([]*Resource, error) {
	content, err := c.readContent(ctx, recursive)
	if err != nil {
		return nil, err
	}

	var entries []interface{}
	if c.flatten != nil {
		entries = c.flatten(content)
	} else if content != nil {
		list, ok := content.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w for %s: %T", ErrUnexpectedListing, c.uri, content)
		}

		entries = list
	}

	resources := make([]*Resource, 0, len(entries))

	for _, entry := range entries {
		if recursive {
			details, ok := entry.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w for %s: %T", ErrUnexpectedListing, c.uri, entry)
			}

			resource, err := c.resourceFromDetails(details)
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", c.uri, err)
			}

			resources = append(resources, resource)

			continue
		}

		uri, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("%w for %s: %T", ErrUnexpectedListing, c.uri, entry)
		}

		resources = append(resources, newResource(c.remote, c.kind, uri))
	}

	return resources, nil
}

// ReadRaw lists the collection and returns the unprocessed listing content.
func (c *Collection) ReadRaw(ctx context.Context, recursive bool) (interface{}, error) {
	return c.readContent(ctx, recursive)
}

func (c *Collection) readContent(ctx context.Context, recursive bool) (interface{}, error) {
	var params url.Values
	if recursive {
		params = url.Values{}
		params.Set(constants.ParamRecursion, "1")
	}

	resp, err := c.remote.Request(ctx, http.MethodGet, c.uri, params, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.uri, err)
	}

	return resp.Metadata, nil
}

// GetHandle returns a resource handle for the given identifier without
// performing any network call. Identifiers are percent-encoded into the
// URI; an identifier that is already a fully-qualified URI under the
// collection is normalized first.
func (c *Collection) GetHandle(id string) *Resource {
	return newResource(c.remote, c.kind, c.resourceURI(id))
}

// Get fetches a single resource in the collection.
func (c *Collection) Get(ctx context.Context, id string) (*Resource, error) {
	resource := c.GetHandle(id)

	if _, err := resource.Read(ctx); err != nil {
		return nil, err
	}

	return resource, nil
}

// resourceFromDetails builds a pre-populated resource from a raw detail
// payload, as returned by recursive listings.
func (c *Collection) resourceFromDetails(details map[string]interface{}) (*Resource, error) {
	id, err := c.kind.idFromDetails(details)
	if err != nil {
		return nil, err
	}

	resource := newResource(c.remote, c.kind, c.resourceURI(id))
	resource.SetDetails(details)

	return resource, nil
}

func (c *Collection) resourceURI(id string) string {
	if strings.HasPrefix(id, c.uri+"/") {
		// strip the redundant prefix before re-adding it
		id = id[len(c.uri)+1:]
	}

	return c.uri + "/" + quotePath(id)
}

// quotePath percent-encodes an identifier for use in a URI path, keeping
// path separators intact (image alias names contain slashes).
func quotePath(id string) string {
	segments := strings.Split(id, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}
