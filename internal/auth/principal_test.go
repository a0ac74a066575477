package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

func TestRequireRejectsAnonymousPrincipal(t *testing.T) {
	err := Require(Principal{}, AnyPrincipal)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestReviewCapabilityIsTeacherOnly(t *testing.T) {
	teacher := Principal{ID: "t-1", Role: "Teacher"}
	student := Principal{ID: "s-1", Role: RoleStudent}

	require.NoError(t, Require(teacher, ReviewSubmissions))
	require.ErrorIs(t, Require(student, ReviewSubmissions), appErrors.ErrForbidden)
	require.ErrorIs(t, Require(Principal{ID: "x"}, ReviewSubmissions), appErrors.ErrForbidden)
}

func TestOwnerOrCapability(t *testing.T) {
	capability := OwnerOrCapability("s-1", ReviewSubmissions)

	require.True(t, capability.Allows(Principal{ID: "s-1", Role: RoleStudent}))
	require.True(t, capability.Allows(Principal{ID: "t-9", Role: RoleTeacher}))
	require.False(t, capability.Allows(Principal{ID: "s-2", Role: RoleStudent}))
	require.False(t, capability.Allows(Principal{}))
	require.Equal(t, "owner-or-submissions:review", capability.Name())
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{ID: "s-1", Name: "Linh"})

	principal, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "Linh", principal.Name)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}
