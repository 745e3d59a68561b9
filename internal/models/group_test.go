package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeLeaveStatusOnlyMember(t *testing.T) {
	status := ComputeLeaveStatus(RoleAdmin, 1, 1)
	require.True(t, status.CanLeave)
	require.True(t, status.WillDeleteGroup)
	require.True(t, status.IsOnlyMember)
	require.False(t, status.IsLastAdmin)
	require.Equal(t, int64(1), status.MemberCount)
}

func TestComputeLeaveStatusLastAdmin(t *testing.T) {
	status := ComputeLeaveStatus(RoleAdmin, 5, 1)
	require.False(t, status.CanLeave)
	require.True(t, status.IsLastAdmin)
	require.False(t, status.WillDeleteGroup)
	require.NotEmpty(t, status.Reason)
}

func TestComputeLeaveStatusRegularMember(t *testing.T) {
	status := ComputeLeaveStatus(RoleMember, 5, 1)
	require.True(t, status.CanLeave)
	require.False(t, status.WillDeleteGroup)
	require.False(t, status.IsLastAdmin)
	require.Equal(t, int64(5), status.MemberCount)
	require.Equal(t, int64(1), status.AdminCount)
}

func TestComputeLeaveStatusAdminWithAnotherAdmin(t *testing.T) {
	status := ComputeLeaveStatus(RoleAdmin, 5, 2)
	require.True(t, status.CanLeave)
	require.False(t, status.IsLastAdmin)
}

func TestGroupRoleValid(t *testing.T) {
	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleMember.Valid())
	require.False(t, GroupRole("OWNER").Valid())
}

func TestMemberSpecHasIdentifier(t *testing.T) {
	require.True(t, MemberSpec{Email: "a@b.c"}.HasIdentifier())
	require.True(t, MemberSpec{Username: "alice"}.HasIdentifier())
	require.False(t, MemberSpec{Role: RoleMember}.HasIdentifier())
}
