package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SundayYogurt/account_service/internal/authz"
)

func TestAuthorize_EqualRankDeniedForAllMutations(t *testing.T) {
	check := authz.Check{ActorID: 1, ActorRole: 3, TargetID: 2, TargetRole: 3}

	for _, op := range []authz.Operation{
		authz.OpUpdate,
		authz.OpDelete,
		authz.OpResetPassword,
		authz.OpChangeRole,
	} {
		err := authz.Authorize(op, check)
		require.Error(t, err, "op %s must deny equal rank", op)

		d, ok := authz.IsDenial(err)
		require.True(t, ok)
		assert.Equal(t, authz.RuleInsufficientRank, d.Rule)
		assert.Contains(t, d.Message, "equal or higher role")
	}

	// view is thresholded, not ranked; a role-3 actor may read anyone.
	require.NoError(t, authz.Authorize(authz.OpView, check))
}

func TestAuthorize_ChangeRole(t *testing.T) {
	// owner may move any strictly-lower account to any role below its own
	for targetRole := 1; targetRole < 5; targetRole++ {
		for newRole := 1; newRole < 5; newRole++ {
			err := authz.Authorize(authz.OpChangeRole, authz.Check{
				ActorID: 1, ActorRole: 5,
				TargetID: 2, TargetRole: targetRole,
				NewRole: newRole,
			})
			assert.NoError(t, err, "target=%d new=%d", targetRole, newRole)
		}
	}

	// role 4 actor on a role 3 target, demote to 2: allowed
	require.NoError(t, authz.Authorize(authz.OpChangeRole, authz.Check{
		ActorID: 1, ActorRole: 4, TargetID: 2, TargetRole: 3, NewRole: 2,
	}))

	// new role at or above the actor's own: denied
	err := authz.Authorize(authz.OpChangeRole, authz.Check{
		ActorID: 1, ActorRole: 4, TargetID: 2, TargetRole: 3, NewRole: 4,
	})
	d, ok := authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleRoleCeiling, d.Rule)

	// self change is denied before any rank check
	err = authz.Authorize(authz.OpChangeRole, authz.Check{
		ActorID: 7, ActorRole: 5, TargetID: 7, TargetRole: 1, NewRole: 2,
	})
	d, ok = authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleSelfModification, d.Rule)
}

func TestAuthorize_Create(t *testing.T) {
	// creating at or below your own rank is fine
	require.NoError(t, authz.Authorize(authz.OpCreate, authz.Check{ActorRole: 3, NewRole: 3}))
	require.NoError(t, authz.Authorize(authz.OpCreate, authz.Check{ActorRole: 3, NewRole: 1}))

	// requesting a role above your own is not
	err := authz.Authorize(authz.OpCreate, authz.Check{ActorRole: 3, NewRole: 4})
	d, ok := authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleRoleCeiling, d.Rule)
}

func TestAuthorize_Delete(t *testing.T) {
	// self delete denied even for the top rank
	err := authz.Authorize(authz.OpDelete, authz.Check{
		ActorID: 9, ActorRole: 5, TargetID: 9, TargetRole: 5,
	})
	d, ok := authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleSelfModification, d.Rule)

	// strictly lower target: allowed
	require.NoError(t, authz.Authorize(authz.OpDelete, authz.Check{
		ActorID: 9, ActorRole: 5, TargetID: 2, TargetRole: 4,
	}))

	// higher target: denied
	err = authz.Authorize(authz.OpDelete, authz.Check{
		ActorID: 9, ActorRole: 3, TargetID: 2, TargetRole: 4,
	})
	d, ok = authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleInsufficientRank, d.Rule)
}

func TestAuthorize_ViewThreshold(t *testing.T) {
	for role := 1; role <= 2; role++ {
		err := authz.Authorize(authz.OpView, authz.Check{ActorRole: role, TargetRole: 1})
		d, ok := authz.IsDenial(err)
		require.True(t, ok, "role %d must not view", role)
		assert.Equal(t, authz.RuleAdminThreshold, d.Rule)
	}
	for role := 3; role <= 5; role++ {
		// target rank is irrelevant for reads, even above the actor
		require.NoError(t, authz.Authorize(authz.OpView, authz.Check{ActorRole: role, TargetRole: 5}))
	}
}

func TestAuthorize_UnknownOperation(t *testing.T) {
	err := authz.Authorize(authz.Operation("promote"), authz.Check{ActorRole: 5})
	d, ok := authz.IsDenial(err)
	require.True(t, ok)
	assert.Equal(t, authz.RuleUnknownOperation, d.Rule)
}

func TestAuthorize_ResetPasswordMirrorsUpdate(t *testing.T) {
	require.NoError(t, authz.Authorize(authz.OpResetPassword, authz.Check{
		ActorID: 1, ActorRole: 4, TargetID: 2, TargetRole: 2,
	}))

	err := authz.Authorize(authz.OpResetPassword, authz.Check{
		ActorID: 1, ActorRole: 2, TargetID: 2, TargetRole: 2,
	})
	_, ok := authz.IsDenial(err)
	require.True(t, ok)
}
