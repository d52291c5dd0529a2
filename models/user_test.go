package models

import "testing"

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleSuperAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleUser, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
	}

	for _, tt := range tests {
		if got := tt.role.Satisfies(tt.required); got != tt.want {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAdmin, RoleSuperAdmin} {
		if !role.Valid() {
			t.Errorf("Expected role %s to be valid", role)
		}
	}
	if Role("root").Valid() {
		t.Error("Expected unknown role to be invalid")
	}
}

func TestUserStatusValid(t *testing.T) {
	for _, status := range []UserStatus{UserStatusActive, UserStatusInactive, UserStatusBanned} {
		if !status.Valid() {
			t.Errorf("Expected status %s to be valid", status)
		}
	}
	if UserStatus("frozen").Valid() {
		t.Error("Expected unknown status to be invalid")
	}
}
