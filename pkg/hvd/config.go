package hvd

import "time"

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Remote.
//
// # Addressing
//
// Address accepts two URI forms:
//   - "unix://[socket-path]" — local socket; an empty path selects the
//     default hvd socket location.
//   - "https://host[:port]" — TLS remote.
//
// # TLS
//
// For https remotes, ServerCert pins the server certificate and
// ClientCert/ClientKey provide the client identity the server trusts.
// InsecureSkipVerify disables server certificate verification and is meant
// for development setups only.
//
// # Retries
//
// Requests are not retried unless RetryMax is set; the wait bounds apply
// only when retries are enabled.
type Config struct {
	// Address is the remote URI (required).
	Address string

	// Version is the API version prefix; defaults to "1.0".
	Version string

	// ServerCert, ClientCert, and ClientKey are PEM file paths for TLS
	// remotes.
	ServerCert string
	ClientCert string
	ClientKey  string

	// InsecureSkipVerify disables TLS server verification.
	InsecureSkipVerify bool

	// RetryMax is the maximum number of retries for transient failures
	// (>=500, 429, and connection errors). Zero disables retrying.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables verbose request/response logging when a Logger is set.
	Debug bool

	// Logger is an optional structured logger used by the transport.
	Logger Logger

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}
