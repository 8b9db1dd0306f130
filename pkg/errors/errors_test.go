package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesCause(t *testing.T) {
	err := ErrInternalServer.WithInternal(stdErrors.New("disk full"))
	require.Equal(t, "Internal server error: disk full", err.Error())
	require.Equal(t, "Resource not found", ErrNotFound.Error())

	var missing *AppError
	require.Equal(t, "<nil>", missing.Error())
	require.Nil(t, missing.WithMessage("x"))
}

func TestCopiesLeaveSentinelUntouched(t *testing.T) {
	cause := stdErrors.New("row locked")
	with := ErrConflict.WithInternal(cause)

	require.NotSame(t, ErrConflict, with)
	require.Nil(t, ErrConflict.Internal)
	require.ErrorIs(t, with, cause)
	require.ErrorIs(t, with, ErrConflict)

	forbidden := NewForbidden("platinum tier required")
	require.ErrorIs(t, forbidden, ErrForbidden)
	require.NotErrorIs(t, forbidden, ErrNotFound)
	require.Equal(t, "Permission denied", ErrForbidden.Message)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))
	require.Same(t, ErrNotFound, FromError(ErrNotFound))

	wrapped := fmt.Errorf("key binding service: %w", ErrConflict)
	require.Equal(t, http.StatusConflict, FromError(wrapped).StatusCode)

	raw := stdErrors.New("raw")
	out := FromError(raw)
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.ErrorIs(t, out, raw)
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("shortcut is required")
	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "shortcut is required", err.Message)
}
