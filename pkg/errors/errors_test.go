package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, "persist activity record")

	require.Equal(t, "persist activity record: disk full", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrInvalidReportType)
	require.Equal(t, "INVALID_REPORT_TYPE", appErr.Code)
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)

	wrapped := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, wrapped.Code)
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
}

func TestWithInternalCopies(t *testing.T) {
	cause := errors.New("row not found")
	err := ErrNotFound.WithInternal(cause)

	require.Nil(t, ErrNotFound.Internal)
	require.Equal(t, ErrNotFound.Code, err.Code)
	require.ErrorIs(t, err, cause)
}

func TestNewBadRequestUsesValidationCode(t *testing.T) {
	err := NewBadRequest("admin_id is required")
	require.Equal(t, "VALIDATION_ERROR", err.Code)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "admin_id is required", err.Message)
}
