package hvd_test

import (
	"fmt"
	"testing"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	err := &hvd.APIError{Code: 404, Message: "container not found"}
	assert.Equal(t, "API request failed with 404: container not found", err.Error())
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := &hvd.StatusError{StatusCode: 504, Status: "504 Gateway Timeout"}
	assert.Equal(t, "request failed with 504: 504 Gateway Timeout", err.Error())

	bare := &hvd.StatusError{StatusCode: 504}
	assert.Equal(t, "request failed with 504: Gateway Timeout", bare.Error())
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"not found API error", &hvd.APIError{Code: 404}, hvd.IsNotFound, true},
		{"not found status error", &hvd.StatusError{StatusCode: 404}, hvd.IsNotFound, true},
		{"wrapped not found", fmt.Errorf("reading: %w", &hvd.APIError{Code: 404}), hvd.IsNotFound, true},
		{"other code is not not-found", &hvd.APIError{Code: 409}, hvd.IsNotFound, false},
		{"forbidden", &hvd.APIError{Code: 403}, hvd.IsForbidden, true},
		{"forbidden mismatch", &hvd.APIError{Code: 404}, hvd.IsForbidden, false},
		{"precondition API error", &hvd.APIError{Code: 412}, hvd.IsPreconditionFailed, true},
		{"precondition status error", &hvd.StatusError{StatusCode: 412}, hvd.IsPreconditionFailed, true},
		{"precondition mismatch", &hvd.APIError{Code: 400}, hvd.IsPreconditionFailed, false},
		{"plain error", fmt.Errorf("boom"), hvd.IsNotFound, false}, //nolint:err113
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, testCase.predicate(testCase.err))
		})
	}
}
