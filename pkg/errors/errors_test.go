package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("review: %w", appErrors.ErrAlreadyReviewed)

	normalized := appErrors.FromError(wrapped)
	require.Equal(t, "ALREADY_REVIEWED", normalized.Code)
	require.Equal(t, http.StatusConflict, normalized.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	normalized := appErrors.FromError(errors.New("connection reset"))
	require.Equal(t, appErrors.ErrInternal.Code, normalized.Code)
	require.Equal(t, http.StatusInternalServerError, normalized.Status)
	require.EqualError(t, normalized, "internal server error: connection reset")
	require.Nil(t, appErrors.FromError(nil))
}

func TestCloneMatchesOriginalByCode(t *testing.T) {
	clone := appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	require.Equal(t, "submission not found", clone.Message)
	require.ErrorIs(t, clone, appErrors.ErrNotFound)
	require.NotErrorIs(t, clone, appErrors.ErrInvalidID)
	require.Equal(t, "resource not found", appErrors.ErrNotFound.Message)
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("redis down")
	err := appErrors.WithCause(appErrors.ErrLedger, cause)

	require.ErrorIs(t, err, appErrors.ErrLedger)
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}
