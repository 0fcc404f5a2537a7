package flows

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrInvalidAmount), "Invalid Amount"},
		{"server message", &api.ServerError{Status: 400, Message: "Event is full"}, "Event is full"},
		{"server without message", &api.ServerError{Status: 500}, "fallback"},
		{"transport", fmt.Errorf("%w: dial", api.ErrUnavailable), "fallback"},
		{"validation", &ValidationError{Fields: map[string]string{"B": "second", "A": "first"}}, "first second"},
		{"other", errors.New("boom"), "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err, "fallback"))
		})
	}
}
