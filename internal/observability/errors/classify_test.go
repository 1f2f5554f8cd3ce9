package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "app error uses its code",
			err:  apperrors.QueueFull("full"),
			want: "queue_full",
		},
		{
			name: "wrapped app error still classifies by code",
			err:  fmt.Errorf("submit: %w", apperrors.FetchFailed("boom")),
			want: "fetch_failed",
		},
		{
			name: "plain error falls back to type name",
			err:  fmt.Errorf("wrapper: %w", errSentinel),
			want: "errors_errorstring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

var errSentinel = goerrors.New("sentinel")
