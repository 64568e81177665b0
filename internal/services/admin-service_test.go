package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/authz"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/dto"
)

func adminCreateInput(n string, role int) dto.AdminCreateRequest {
	return dto.AdminCreateRequest{
		FirstName: "Test",
		LastName:  "Account",
		Email:     n + "@example.com",
		Username:  n,
		Phone:     "+4915512" + n,
		Password:  "pw-of-" + n + "-1",
		Role:      role,
	}
}

func seedWithRole(f *fixture, n string, role int) *domain.Account {
	acct := activeAccount(n)
	acct.Role = role
	return f.seedAccount(acct, "pw-of-"+n+"-1")
}

func TestAdminCreateAccount(t *testing.T) {
	f := newFixture()
	owner := seedWithRole(f, "owner", domain.RoleOwner)
	svc := f.adminService()

	acct, err := svc.CreateAccount(claimsFor(owner), adminCreateInput("staff", domain.RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, acct.Role)
	require.Equal(t, domain.StatusActive, acct.Status)
	require.True(t, acct.EmailVerified)

	cred, err := f.creds.FindCredentialByAccountId(acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), cred.Generation)
}

func TestAdminCreateAccount_RoleCeiling(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	svc := f.adminService()

	// An admin may mint peers but never a rank above its own.
	_, err := svc.CreateAccount(claimsFor(admin), adminCreateInput("peer", domain.RoleAdmin))
	require.NoError(t, err)

	_, err = svc.CreateAccount(claimsFor(admin), adminCreateInput("boss", domain.RoleSuperAdmin))
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleRoleCeiling, denial.Rule)
}

func TestAdminCreateAccount_Conflict(t *testing.T) {
	f := newFixture()
	owner := seedWithRole(f, "owner", domain.RoleOwner)
	f.seedAccount(activeAccount("taken"), "pw-of-taken-1")
	svc := f.adminService()

	_, err := svc.CreateAccount(claimsFor(owner), adminCreateInput("taken", domain.RoleMember))
	conflict, ok := apperr.AsConflict(err)
	require.True(t, ok)
	require.Equal(t, "email", conflict.Field)
}

func TestAdminView_Threshold(t *testing.T) {
	f := newFixture()
	support := seedWithRole(f, "support", domain.RoleSupport)
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	owner := seedWithRole(f, "owner", domain.RoleOwner)
	svc := f.adminService()

	_, err := svc.GetAccount(claimsFor(support), owner.ID)
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleAdminThreshold, denial.Rule)

	_, _, err = svc.ListAccounts(claimsFor(support), 10, 0)
	requireDenial(t, err)

	// Reads ignore target rank entirely: an admin can inspect the owner.
	got, err := svc.GetAccount(claimsFor(admin), owner.ID)
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.ID)

	accounts, total, err := svc.ListAccounts(claimsFor(admin), 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, accounts, 3)
}

func TestAdminUpdate_EqualRankDenied(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	peer := seedWithRole(f, "peer", domain.RoleAdmin)
	svc := f.adminService()

	name := "Renamed"
	_, err := svc.UpdateAccount(claimsFor(admin), peer.ID, dto.AdminUpdateRequest{FirstName: &name})
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleInsufficientRank, denial.Rule)
}

func TestAdminUpdate_EmailChangeDropsVerification(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	// Pretend a verification round trip is in flight for the old address.
	require.NoError(t, f.emails.ReplaceEmailVerification(&domain.EmailVerification{
		AccountID: member.ID,
		TokenHash: "stale-hash",
	}))

	email := "new-address@example.com"
	got, err := svc.UpdateAccount(claimsFor(admin), member.ID, dto.AdminUpdateRequest{Email: &email})
	require.NoError(t, err)
	require.Equal(t, email, got.Email)
	require.False(t, got.EmailVerified)

	_, err = f.emails.FindEmailVerificationByAccountId(member.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdminUpdate_PartialPatch(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	first := "Grace"
	got, err := svc.UpdateAccount(claimsFor(admin), member.ID, dto.AdminUpdateRequest{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Grace", got.FirstName)
	require.Equal(t, member.Email, got.Email)
	require.True(t, got.EmailVerified)
}

func TestAdminDelete(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	require.NoError(t, svc.DeleteAccount(claimsFor(admin), member.ID))

	// The row is still there; deleted is a terminal status, not a removal.
	stored, err := f.accounts.FindAccountById(member.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDeleted, stored.Status)

	// Idempotent on an already-deleted target.
	require.NoError(t, svc.DeleteAccount(claimsFor(admin), member.ID))
}

func TestAdminDelete_SelfDenied(t *testing.T) {
	f := newFixture()
	owner := seedWithRole(f, "owner", domain.RoleOwner)
	svc := f.adminService()

	err := svc.DeleteAccount(claimsFor(owner), owner.ID)
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleSelfModification, denial.Rule)
}

func TestAdminSetStatus(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	got, err := svc.SetStatus(claimsFor(admin), member.ID, "suspended")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, got.Status)

	_, err = svc.SetStatus(claimsFor(admin), member.ID, "frozen")
	require.Error(t, err)
}

func TestAdminChangeRole(t *testing.T) {
	f := newFixture()
	superAdmin := seedWithRole(f, "super", domain.RoleSuperAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	got, err := svc.ChangeRole(claimsFor(superAdmin), member.ID, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)

	// The new role must stay strictly below the actor's own.
	_, err = svc.ChangeRole(claimsFor(superAdmin), member.ID, domain.RoleSuperAdmin)
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleRoleCeiling, denial.Rule)

	_, err = svc.ChangeRole(claimsFor(superAdmin), superAdmin.ID, domain.RoleMember)
	denial = requireDenial(t, err)
	require.Equal(t, authz.RuleSelfModification, denial.Rule)
}

func TestAdminResetPassword(t *testing.T) {
	f := newFixture()
	admin := seedWithRole(f, "admin", domain.RoleAdmin)
	member := seedWithRole(f, "member", domain.RoleMember)
	svc := f.adminService()

	err := svc.ResetPassword(claimsFor(admin), member.ID, "pw-of-member-1")
	require.ErrorIs(t, err, apperr.ErrSamePassword)

	require.NoError(t, svc.ResetPassword(claimsFor(admin), member.ID, "issued-by-admin"))

	cred, err := f.creds.FindCredentialByAccountId(member.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), cred.Generation)

	// No old password needed, but rank still rules: equals are off limits.
	peer := seedWithRole(f, "peer", domain.RoleAdmin)
	err = svc.ResetPassword(claimsFor(admin), peer.ID, "whatever-else")
	denial := requireDenial(t, err)
	require.Equal(t, authz.RuleInsufficientRank, denial.Rule)
}

func requireDenial(t *testing.T, err error) *authz.Denial {
	t.Helper()
	denial, ok := authz.IsDenial(err)
	require.True(t, ok, "expected an authorization denial, got %v", err)
	return denial
}
