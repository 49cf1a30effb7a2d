package hvd

import (
	"io"
	"time"
)

// ResponseType identifies the envelope type of an API response.
type ResponseType string

const (
	// ResponseSync marks a synchronous response.
	ResponseSync ResponseType = "sync"

	// ResponseAsync marks a response that spawned a background operation.
	ResponseAsync ResponseType = "async"

	// ResponseError marks an error envelope.
	ResponseError ResponseType = "error"

	// ResponseRaw marks a non-JSON response carrying a byte stream.
	ResponseRaw ResponseType = "raw"
)

// Envelope is the JSON wrapper present on every API response body.
// Metadata holds an object for single-resource responses and an array for
// listings.
type Envelope struct {
	Type      ResponseType `json:"type"`
	Metadata  interface{}  `json:"metadata"`
	Error     string       `json:"error"`
	ErrorCode int          `json:"error_code"`
}

// Response is a normalized API response.
//
// Exactly one of Metadata and Stream is populated: JSON bodies are decoded
// into Metadata, any other body is exposed as Stream. Closing Stream is the
// caller's responsibility.
type Response struct {
	StatusCode int
	Type       ResponseType

	// ETag is the concurrency token from the response headers, if any.
	ETag string

	// Location is the creation-location header, set when a resource or
	// background operation was created.
	Location string

	Metadata interface{}
	Stream   io.ReadCloser
}

// MetadataMap returns the metadata as an object, or nil when the response
// carries a listing or a stream instead.
func (r *Response) MetadataMap() map[string]interface{} {
	metadata, _ := r.Metadata.(map[string]interface{})

	return metadata
}

// HasStream reports whether the response carries a raw byte stream.
func (r *Response) HasStream() bool {
	return r.Stream != nil
}

// IsAsync reports whether the response spawned a background operation.
func (r *Response) IsAsync() bool {
	return r.Type == ResponseAsync
}

// WriteTo copies the raw response payload to w and closes the stream.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	if r.Stream == nil {
		return 0, ErrNoStream
	}

	defer r.Stream.Close()

	return io.Copy(w, r.Stream)
}

// Event is a notification pushed by the server over the streaming
// connection. Events are immutable once constructed.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}
