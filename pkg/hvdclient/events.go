package hvdclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// EventHandler receives one decoded event at a time. The stream does not
// read the next frame until the handler returns, so a slow handler
// back-pressures the connection.
type EventHandler func(event hvd.Event)

// ErrorHook receives stream-level soft failures (frames that cannot be
// decoded). It never terminates the stream.
type ErrorHook func(err error)

// EventsOption configures an event stream.
type EventsOption func(*eventsOptions)

type eventsOptions struct {
	types     []string
	errorHook ErrorHook
}

// WithEventTypes filters the stream to the given event types.
func WithEventTypes(types ...string) EventsOption {
	return func(o *eventsOptions) {
		o.types = types
	}
}

// WithErrorHook overrides the default no-op hook for soft stream failures.
func WithErrorHook(hook ErrorHook) EventsOption {
	return func(o *eventsOptions) {
		o.errorHook = hook
	}
}

// EventListener is a running event stream. It is independent of ordinary
// request/response traffic on the remote and is cancelled by Stop, by the
// context passed to Events, or when the session is closed.
type EventListener struct {
	conn *websocket.Conn
	done chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}

	mu  sync.Mutex
	err error
}

// Events opens the persistent streaming connection and dispatches decoded
// events to the handler, one in-flight message at a time. It returns once
// the connection is established; the read loop runs until the server
// closes the stream, the context is cancelled, or Stop is called.
func (r *Remote) Events(ctx context.Context, handler EventHandler, opts ...EventsOption) (*EventListener, error) {
	if r.client == nil {
		return nil, hvd.ErrSessionClosed
	}

	options := eventsOptions{errorHook: func(error) {}}
	for _, opt := range opts {
		opt(&options)
	}

	var params url.Values
	if len(options.types) > 0 {
		params = url.Values{}
		params.Set(constants.ParamEventType, strings.Join(options.types, ","))
	}

	conn, err := r.client.DialWebsocket(ctx, "/"+r.version+"/events", params)
	if err != nil {
		return nil, fmt.Errorf("opening event stream: %w", err)
	}

	listener := &EventListener{
		conn:    conn,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	r.addListener(listener)

	// close the connection when the context is cancelled so the read loop
	// unblocks
	go func() {
		select {
		case <-ctx.Done():
			listener.Stop()
			<-listener.done
		case <-listener.done:
		}

		r.removeListener(listener)
	}()

	go listener.run(handler, options.errorHook)

	return listener, nil
}

func (l *EventListener) run(handler EventHandler, errorHook ErrorHook) {
	defer close(l.done)
	defer l.conn.Close()

	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			// shutdown paths are not stream failures
			if l.isStopped() || isCloseError(err) {
				return
			}

			l.mu.Lock()
			l.err = err
			l.mu.Unlock()

			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var event hvd.Event
		if err := json.Unmarshal(data, &event); err != nil {
			errorHook(fmt.Errorf("decoding event: %w", err))

			continue
		}

		handler(event)
	}
}

// Stop cancels the stream by closing its connection. It is safe to call
// multiple times and concurrently with a context cancellation.
func (l *EventListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
		_ = l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = l.conn.Close()
	})
}

// Done is closed when the read loop has terminated and the connection is
// closed.
func (l *EventListener) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the stream terminates and returns its outcome.
func (l *EventListener) Wait() error {
	<-l.done

	return l.Err()
}

// Err returns the stream failure, if any. Server-initiated close, Stop,
// and context cancellation all terminate the stream without error.
func (l *EventListener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

func (l *EventListener) isStopped() bool {
	select {
	case <-l.stopped:
		return true
	default:
		return false
	}
}

func isCloseError(err error) bool {
	closeErr := &websocket.CloseError{}
	if errors.As(err, &closeErr) {
		return true
	}

	return errors.Is(err, net.ErrClosed)
}
