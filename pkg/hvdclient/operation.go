package hvdclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/pkg/hvd"
)

// Operation statuses reported in the "status" field of an operation
// snapshot. An operation is terminal once it reaches one of the last three.
const (
	OperationRunning   = "Running"
	OperationSuccess   = "Success"
	OperationFailure   = "Failure"
	OperationCancelled = "Cancelled"
)

// Operation tracks a server-side background task. It is a Resource
// specialization: the task is addressed, read, and deleted like any other
// resource, and additionally supports blocking until completion.
type Operation struct {
	Resource
}

// operationFromResponse wraps an asynchronous response as an Operation
// addressed at its creation location, pre-seeded with the response
// metadata so no extra round trip is needed for the initial state.
func operationFromResponse(remote *Remote, resp *hvd.Response) (*Operation, error) {
	if resp.Location == "" {
		return nil, hvd.ErrMissingLocation
	}

	operation := &Operation{Resource: *newResource(remote, operationKind, resp.Location)}
	operation.SetDetails(resp.MetadataMap())

	return operation, nil
}

func (o *Operation) clone() *Operation {
	return &Operation{Resource: *o.Resource.clone()}
}

// Wait blocks until the operation reaches a terminal state, refreshing the
// cached snapshot from the wait response. A positive timeout is forwarded
// to the server as a timeout query parameter (seconds).
func (o *Operation) Wait(ctx context.Context, timeout time.Duration) (*hvd.Response, error) {
	var params url.Values
	if timeout > 0 {
		params = url.Values{}
		params.Set(constants.ParamTimeout, strconv.Itoa(int(timeout.Seconds())))
	}

	resp, err := o.remote.Request(ctx, http.MethodGet, o.uri+"/wait", params, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", o.uri, err)
	}

	o.processResponse(resp)

	return resp, nil
}

// Status returns the operation status from the cached snapshot.
func (o *Operation) Status() (string, error) {
	value, err := o.Detail("status")
	if err != nil {
		return "", err
	}

	status, _ := value.(string)

	return status, nil
}

// StatusCode returns the numeric operation status from the cached
// snapshot.
func (o *Operation) StatusCode() (int, error) {
	value, err := o.Detail("status_code")
	if err != nil {
		return 0, err
	}

	code, _ := value.(float64)

	return int(code), nil
}

// IsTerminal reports whether the cached snapshot shows a terminal status.
func (o *Operation) IsTerminal() bool {
	status, err := o.Status()
	if err != nil {
		return false
	}

	switch status {
	case OperationSuccess, OperationFailure, OperationCancelled:
		return true
	default:
		return false
	}
}

// flattenOperations turns the status-keyed operations listing into a single
// ordered list of operation URIs.
func flattenOperations(content interface{}) []interface{} {
	grouped, ok := content.(map[string]interface{})
	if !ok {
		return nil
	}

	var entries []interface{}

	for _, status := range []string{OperationRunning, OperationSuccess, OperationFailure, OperationCancelled} {
		if list, ok := grouped[status].([]interface{}); ok {
			entries = append(entries, list...)
		}
	}

	// statuses beyond the known set are appended in map order
	for status, value := range grouped {
		switch status {
		case OperationRunning, OperationSuccess, OperationFailure, OperationCancelled:
			continue
		}

		if list, ok := value.([]interface{}); ok {
			entries = append(entries, list...)
		}
	}

	return entries
}
