package constants

import "time"

// API layout.
const (
	// DefaultAPIVersion is the version prefix used when none is configured.
	DefaultAPIVersion = "1.0"

	// DefaultUnixSocketPath is the default location of the hvd socket.
	DefaultUnixSocketPath = "/var/lib/hvd/unix.socket"
)

// Header names.
const (
	// HeaderETag carries the concurrency token on responses.
	HeaderETag = "ETag"

	// HeaderIfMatch sends the concurrency token as an update precondition.
	HeaderIfMatch = "If-Match"

	// HeaderLocation carries the creation location of a resource or
	// background operation.
	HeaderLocation = "Location"
)

// Query parameter names recognized by the API.
const (
	ParamRecursion = "recursion"
	ParamTimeout   = "timeout"
	ParamSecret    = "secret"
	ParamEventType = "type"
)

// Retry tuning.
const (
	// DefaultRetryWaitMin is the minimum backoff between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum backoff between retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)
