package errors_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Is(t *testing.T) {
	t.Run("401 is unauthorized", func(t *testing.T) {
		err := errors.Wrap(&apperrors.APIError{StatusCode: 401, Message: "Unauthorized"}, "[Test] call")
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.NotErrorIs(t, err, apperrors.ErrServer)
	})

	t.Run("500 is server error", func(t *testing.T) {
		err := &apperrors.APIError{StatusCode: 500, Message: "boom"}
		require.ErrorIs(t, err, apperrors.ErrServer)
		require.NotErrorIs(t, err, apperrors.ErrUnauthorized)
		require.Contains(t, err.Error(), "500")
	})
}

func TestNetworkError(t *testing.T) {
	err := errors.Wrap(&apperrors.NetworkError{Op: "GET /v1/x", Cause: context.Canceled}, "[Test] call")
	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	require.ErrorIs(t, err, context.Canceled)

	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, "GET /v1/x", netErr.Op)
}
