// Package transport performs single HTTP exchanges against an hvd remote
// and classifies their outcome into normalized responses and typed errors.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/internal/endpoint"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// Static errors for err113 compliance.
var (
	ErrBodyConflict  = errors.New("content and upload are mutually exclusive")
	ErrReadServerPEM = errors.New("cannot parse server certificate")
)

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one API exchange.
//
// At most one of Content, Upload, and UploadPath may be set. Content is
// JSON-serialized with an application/json content type. Upload and
// UploadPath send an octet-stream body; an UploadPath file is opened and
// closed by the call, an Upload reader is left open for the caller to close.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Headers    map[string]string
	Content    interface{}
	Upload     io.Reader
	UploadPath string
}

// Client executes requests against a single remote.
type Client struct {
	remote    *endpoint.Remote
	http      *retryablehttp.Client
	logger    Logger
	debug     bool
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for the client.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables retrying of transient failures (>=500, 429, and
// connection errors).
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = retryMax
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// NewClient creates a client for the given remote. tlsConfig is only used
// for https remotes and may be nil.
func NewClient(remote *endpoint.Remote, tlsConfig *tls.Config, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0 // no automatic retries unless configured
	retryClient.Logger = nil
	// Hand back the final response even when its status would have been
	// retried, so classify can turn it into a typed error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Transport = httpTransport(remote, tlsConfig)

	client := &Client{
		remote:    remote,
		http:      retryClient,
		userAgent: "hvd-client/1.0",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func httpTransport(remote *endpoint.Remote, tlsConfig *tls.Config) *http.Transport {
	if remote.IsUnix() {
		return &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var dialer net.Dialer

				return dialer.DialContext(ctx, "unix", remote.SocketPath())
			},
		}
	}

	return &http.Transport{TLSClientConfig: tlsConfig}
}

// TLSConfig builds the TLS client configuration from PEM file paths in the
// client config. Returns nil for configs without TLS material.
func TLSConfig(cfg *hvd.Config) (*tls.Config, error) {
	if cfg.ServerCert == "" && cfg.ClientCert == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicit opt-in for development remotes
	}

	if cfg.ServerCert != "" {
		pem, err := os.ReadFile(cfg.ServerCert)
		if err != nil {
			return nil, fmt.Errorf("reading server certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: %s", ErrReadServerPEM, cfg.ServerCert)
		}

		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Do performs one API exchange and classifies its outcome.
func (c *Client) Do(ctx context.Context, req *Request) (*hvd.Response, error) {
	body, contentType, closeBody, err := requestBody(req)
	if err != nil {
		return nil, err
	}

	if closeBody != nil {
		defer closeBody()
	}

	fullURL := c.remote.RequestURL(req.Path, req.Query)

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	resp, err := c.classify(httpResp)

	if c.debug && c.logger != nil && resp != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
			"status": resp.StatusCode,
		})
	}

	return resp, err
}

// requestBody prepares the request body and content type. The returned
// closer is non-nil when the body was opened from a file path.
func requestBody(req *Request) (io.Reader, string, func(), error) {
	sources := 0
	for _, set := range []bool{req.Content != nil, req.Upload != nil, req.UploadPath != ""} {
		if set {
			sources++
		}
	}

	if sources > 1 {
		return nil, "", nil, ErrBodyConflict
	}

	switch {
	case req.Content != nil:
		data, err := json.Marshal(req.Content)
		if err != nil {
			return nil, "", nil, fmt.Errorf("encoding request content: %w", err)
		}

		return bytes.NewReader(data), "application/json", nil, nil

	case req.UploadPath != "":
		file, err := os.Open(req.UploadPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("opening upload file: %w", err)
		}

		return file, "application/octet-stream", func() { _ = file.Close() }, nil

	case req.Upload != nil:
		// caller keeps ownership of the reader
		return req.Upload, "application/octet-stream", nil, nil

	default:
		return nil, "", nil, nil
	}
}

// classify turns an HTTP response into a normalized Response or a typed
// error. The normalized response is returned alongside an error when the
// status could be read.
func (c *Client) classify(httpResp *http.Response) (*hvd.Response, error) {
	resp := &hvd.Response{
		StatusCode: httpResp.StatusCode,
		ETag:       httpResp.Header.Get(constants.HeaderETag),
		Location:   httpResp.Header.Get(constants.HeaderLocation),
	}

	if !isJSON(httpResp.Header.Get("Content-Type")) {
		if httpResp.StatusCode >= http.StatusBadRequest {
			_ = httpResp.Body.Close()

			return resp, &hvd.StatusError{StatusCode: httpResp.StatusCode, Status: httpResp.Status}
		}

		resp.Type = hvd.ResponseRaw
		resp.Stream = httpResp.Body

		return resp, nil
	}

	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, fmt.Errorf("reading response body: %w", err)
	}

	var envelope hvd.Envelope
	decodeErr := json.Unmarshal(data, &envelope)

	if httpResp.StatusCode >= http.StatusBadRequest {
		// The envelope's code and message override the raw HTTP status
		// when present.
		if decodeErr == nil && (envelope.ErrorCode != 0 || envelope.Error != "") {
			code := envelope.ErrorCode
			if code == 0 {
				code = httpResp.StatusCode
			}

			return resp, &hvd.APIError{Code: code, Message: envelope.Error}
		}

		return resp, &hvd.StatusError{StatusCode: httpResp.StatusCode, Status: httpResp.Status}
	}

	if decodeErr != nil {
		return resp, fmt.Errorf("decoding response envelope: %w", decodeErr)
	}

	resp.Type = envelope.Type
	if resp.Type == "" {
		resp.Type = hvd.ResponseSync
	}

	resp.Metadata = envelope.Metadata

	return resp, nil
}

func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")

	return strings.TrimSpace(mediaType) == "application/json"
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*hvd.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, content interface{}) (*hvd.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Content: content})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, content interface{}) (*hvd.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Content: content})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, content interface{}) (*hvd.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Content: content})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*hvd.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// DialWebsocket opens a streaming connection on the given path.
func (c *Client) DialWebsocket(ctx context.Context, path string, query url.Values) (*websocket.Conn, error) {
	dialer := websocket.Dialer{}

	if c.remote.IsUnix() {
		dialer.NetDialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			var netDialer net.Dialer

			return netDialer.DialContext(ctx, "unix", c.remote.SocketPath())
		}
	} else if t, ok := c.http.HTTPClient.Transport.(*http.Transport); ok {
		dialer.TLSClientConfig = t.TLSClientConfig
	}

	wsURL := c.remote.WebsocketURL(path, query)

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("dialing websocket %s: %w", wsURL, err)
	}

	return conn, nil
}
