package hvdclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/internal/endpoint"
	"github.com/hvd-io/hvd-client/internal/transport"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// Remote represents one hvd server endpoint. It owns the connection
// session and exposes the collection accessors bound to it.
//
// Requests can only be issued within a session: call Open before use and
// Close when done. The session is endpoint-scoped mutable state; opening an
// already-open remote or requesting on a closed one is an error.
type Remote struct {
	cfg      *hvd.Config
	endpoint *endpoint.Remote
	version  string

	// client is non-nil while a session is open.
	client *transport.Client

	mu        sync.Mutex
	listeners map[*EventListener]struct{}
}

// New validates the configuration and builds a Remote. No connection is
// established until Open.
func New(cfg *hvd.Config) (*Remote, error) {
	if cfg == nil {
		return nil, hvd.ErrConfigRequired
	}

	if cfg.Address == "" {
		return nil, hvd.ErrAddressRequired
	}

	parsed, err := endpoint.Parse(cfg.Address)
	if err != nil {
		return nil, err
	}

	version := cfg.Version
	if version == "" {
		version = constants.DefaultAPIVersion
	}

	return &Remote{cfg: cfg, endpoint: parsed, version: version}, nil
}

// Address returns the canonical remote address.
func (r *Remote) Address() string {
	return r.endpoint.String()
}

// Open starts a session with the remote.
func (r *Remote) Open() error {
	if r.client != nil {
		return hvd.ErrSessionOpen
	}

	tlsConfig, err := transport.TLSConfig(r.cfg)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}

	opts := []transport.Option{}

	if r.cfg.Logger != nil {
		opts = append(opts, transport.WithLogger(r.cfg.Logger))
	}

	if r.cfg.Debug {
		opts = append(opts, transport.WithDebug(true))
	}

	if r.cfg.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(r.cfg.UserAgent))
	}

	if r.cfg.RetryMax > 0 {
		waitMin := constants.DefaultRetryWaitMin
		waitMax := constants.DefaultRetryWaitMax

		if r.cfg.RetryWaitMin > 0 {
			waitMin = r.cfg.RetryWaitMin
		}

		if r.cfg.RetryWaitMax > 0 {
			waitMax = r.cfg.RetryWaitMax
		}

		opts = append(opts, transport.WithRetryConfig(r.cfg.RetryMax, waitMin, waitMax))
	}

	r.client = transport.NewClient(r.endpoint, tlsConfig, opts...)

	return nil
}

// Close terminates the session. Event listeners opened within it are
// stopped before Close returns.
func (r *Remote) Close() error {
	if r.client == nil {
		return hvd.ErrSessionClosed
	}

	r.client = nil

	for _, listener := range r.takeListeners() {
		listener.Stop()
		<-listener.Done()
	}

	return nil
}

func (r *Remote) addListener(listener *EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[*EventListener]struct{})
	}

	r.listeners[listener] = struct{}{}
}

func (r *Remote) removeListener(listener *EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.listeners, listener)
}

func (r *Remote) takeListeners() []*EventListener {
	r.mu.Lock()
	defer r.mu.Unlock()

	listeners := make([]*EventListener, 0, len(r.listeners))
	for listener := range r.listeners {
		listeners = append(listeners, listener)
	}

	r.listeners = nil

	return listeners
}

// IsOpen reports whether a session is active.
func (r *Remote) IsOpen() bool {
	return r.client != nil
}

// Request performs an API request within the session. Relative paths are
// prefixed with the configured API version; absolute paths pass through
// unchanged.
func (r *Remote) Request(ctx context.Context, method, path string, params url.Values, headers map[string]string, content interface{}) (*hvd.Response, error) {
	return r.do(ctx, &transport.Request{
		Method:  method,
		Path:    r.fullPath(path),
		Query:   params,
		Headers: headers,
		Content: content,
	})
}

// Upload sends an octet-stream body read from source, which is left open
// for the caller to close.
func (r *Remote) Upload(ctx context.Context, method, path string, headers map[string]string, source io.Reader) (*hvd.Response, error) {
	return r.do(ctx, &transport.Request{
		Method:  method,
		Path:    r.fullPath(path),
		Headers: headers,
		Upload:  source,
	})
}

// UploadFile sends an octet-stream body from a file, opened and closed by
// the call.
func (r *Remote) UploadFile(ctx context.Context, method, path string, headers map[string]string, filename string) (*hvd.Response, error) {
	return r.do(ctx, &transport.Request{
		Method:     method,
		Path:       r.fullPath(path),
		Headers:    headers,
		UploadPath: filename,
	})
}

func (r *Remote) do(ctx context.Context, req *transport.Request) (*hvd.Response, error) {
	if r.client == nil {
		return nil, hvd.ErrSessionClosed
	}

	return r.client.Do(ctx, req)
}

func (r *Remote) fullPath(path string) string {
	if path == "" {
		return "/" + r.version
	}

	if !strings.HasPrefix(path, "/") {
		return "/" + r.version + "/" + path
	}

	return path
}

// APIVersions returns the API versions available on the server.
func (r *Remote) APIVersions(ctx context.Context) ([]string, error) {
	// absolute path so that the version prefix is not applied
	resp, err := r.Request(ctx, http.MethodGet, "/", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reading API versions: %w", err)
	}

	entries, _ := resp.Metadata.([]interface{})
	versions := make([]string, 0, len(entries))

	for _, entry := range entries {
		if version, ok := entry.(string); ok {
			versions = append(versions, strings.TrimPrefix(version, "/"))
		}
	}

	return versions, nil
}

// Info returns the server configuration and environment.
func (r *Remote) Info(ctx context.Context) (map[string]interface{}, error) {
	resp, err := r.Request(ctx, http.MethodGet, "", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reading server info: %w", err)
	}

	return resp.MetadataMap(), nil
}

// ServerResources returns hardware resource usage for the server.
func (r *Remote) ServerResources(ctx context.Context) (map[string]interface{}, error) {
	resp, err := r.Request(ctx, http.MethodGet, "resources", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("reading server resources: %w", err)
	}

	return resp.MetadataMap(), nil
}

// Config returns the server configuration options.
func (r *Remote) Config(ctx context.Context) (map[string]interface{}, error) {
	info, err := r.Info(ctx)
	if err != nil {
		return nil, err
	}

	config, _ := info["config"].(map[string]interface{})

	return config, nil
}

// SetConfig applies server configuration options, either merging them into
// the current configuration or replacing it.
func (r *Remote) SetConfig(ctx context.Context, options map[string]interface{}, replace bool) (map[string]interface{}, error) {
	method := http.MethodPatch
	if replace {
		method = http.MethodPut
	}

	resp, err := r.Request(ctx, method, "", nil, nil, map[string]interface{}{"config": options})
	if err != nil {
		return nil, fmt.Errorf("setting server config: %w", err)
	}

	config, _ := resp.MetadataMap()["config"].(map[string]interface{})

	return config, nil
}

// Collection accessors. Each constructs a collection bound to this remote
// at the kind's fixed sub-path.

// Certificates returns the trusted-certificates collection.
func (r *Remote) Certificates() *Collection {
	return newCollection(r, certificateKind, r.collectionURI("certificates"))
}

// Containers returns the containers collection.
func (r *Remote) Containers() *Collection {
	return newCollection(r, containerKind, r.collectionURI("containers"))
}

// Images returns the images collection.
func (r *Remote) Images() *Collection {
	return newCollection(r, imageKind, r.collectionURI("images"))
}

// ImageAliases returns the image aliases collection.
func (r *Remote) ImageAliases() *Collection {
	return newCollection(r, imageAliasKind, r.collectionURI("images")+"/aliases")
}

// Networks returns the networks collection.
func (r *Remote) Networks() *Collection {
	return newCollection(r, networkKind, r.collectionURI("networks"))
}

// Operations returns the background-operations collection. Its listings
// are flattened from the server's status-keyed grouping.
func (r *Remote) Operations() *Collection {
	collection := newCollection(r, operationKind, r.collectionURI("operations"))
	collection.flatten = flattenOperations

	return collection
}

// Profiles returns the profiles collection.
func (r *Remote) Profiles() *Collection {
	return newCollection(r, profileKind, r.collectionURI("profiles"))
}

// StoragePools returns the storage pools collection.
func (r *Remote) StoragePools() *Collection {
	return newCollection(r, storagePoolKind, r.collectionURI("storage-pools"))
}

// Operation returns a handle for tracking a background operation by ID.
func (r *Remote) Operation(id string) *Operation {
	return &Operation{Resource: *r.Operations().GetHandle(id)}
}

func (r *Remote) collectionURI(name string) string {
	return "/" + r.version + "/" + name
}
