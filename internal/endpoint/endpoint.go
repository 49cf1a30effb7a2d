// Package endpoint parses and validates remote addresses and builds absolute
// request URLs for the transport.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hvd-io/hvd-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrInvalidRemoteURI  = errors.New("invalid remote URI")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrUnixSocketHost    = errors.New("hostname not allowed for UNIX sockets")
)

// Remote is a parsed and validated remote address.
//
// Supported address forms are "unix://[socket-path]" and
// "https://host[:port]". An empty unix path selects the default hvd socket
// location.
type Remote struct {
	scheme     string
	socketPath string
	base       *url.URL
}

// Parse validates a remote address string.
func Parse(address string) (*Remote, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidRemoteURI, address, err)
	}

	switch parsed.Scheme {
	case "unix":
		if parsed.Host != "" {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidRemoteURI, address, ErrUnixSocketHost)
		}

		socketPath := parsed.Path
		if socketPath == "" {
			socketPath = constants.DefaultUnixSocketPath
		}

		// Requests over the socket still need a URL host for the HTTP
		// client; the dialer ignores it.
		return &Remote{
			scheme:     "unix",
			socketPath: socketPath,
			base:       &url.URL{Scheme: "http", Host: "unix"},
		}, nil

	case "https":
		if parsed.Host == "" {
			return nil, fmt.Errorf("%w %q: missing host", ErrInvalidRemoteURI, address)
		}

		return &Remote{
			scheme: "https",
			base:   &url.URL{Scheme: "https", Host: parsed.Host},
		}, nil

	default:
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidRemoteURI, address, ErrUnsupportedScheme)
	}
}

// IsUnix reports whether the remote is addressed over a local socket.
func (r *Remote) IsUnix() bool {
	return r.scheme == "unix"
}

// SocketPath returns the socket path for unix remotes.
func (r *Remote) SocketPath() string {
	return r.socketPath
}

// Host returns the host[:port] for https remotes.
func (r *Remote) Host() string {
	return r.base.Host
}

// String returns the canonical form of the remote address.
func (r *Remote) String() string {
	if r.scheme == "unix" {
		return "unix://" + r.socketPath
	}

	return r.base.String()
}

// RequestURL returns the absolute URL for a request path, with optional
// query parameters. The path must already be percent-encoded.
func (r *Remote) RequestURL(path string, params url.Values) string {
	u := *r.base
	setWirePath(&u, path)

	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	return u.String()
}

// setWirePath installs an already percent-encoded request path so that
// URL.String does not escape it a second time.
func setWirePath(u *url.URL, path string) {
	escaped := "/" + strings.TrimPrefix(path, "/")

	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		decoded = escaped
	}

	u.Path = decoded
	u.RawPath = escaped
}

// WebsocketURL returns the absolute URL for a streaming connection on the
// given path, using the ws/wss scheme matching the remote.
func (r *Remote) WebsocketURL(path string, params url.Values) string {
	u := *r.base
	setWirePath(&u, path)

	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	return u.String()
}
