package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleManager, RoleOperator, RoleViewer} {
		assert.True(t, IsValidRole(role), string(role))
	}
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}

func TestRoleCan(t *testing.T) {
	cases := []struct {
		role    Role
		action  string
		granted bool
	}{
		{RoleAdmin, "manage_users", true},
		{RoleAdmin, "record_fuel", true},

		{RoleManager, "delete_user", false},
		{RoleManager, "manage_users", false},
		{RoleManager, "register_vehicle", true},
		{RoleManager, "manage_reminders", true},

		{RoleOperator, "view_vehicles", true},
		{RoleOperator, "register_vehicle", true},
		{RoleOperator, "update_odometer", true},
		{RoleOperator, "record_maintenance", true},
		{RoleOperator, "record_fuel", true},
		{RoleOperator, "manage_reminders", true},
		{RoleOperator, "manage_users", false},

		{RoleViewer, "view_vehicles", true},
		{RoleViewer, "view_ledger", true},
		{RoleViewer, "view_metrics", true},
		{RoleViewer, "view_reminders", true},
		{RoleViewer, "record_fuel", false},
		{RoleViewer, "register_vehicle", false},

		{Role("superuser"), "view_vehicles", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.granted, tc.role.Can(tc.action), "%s %s", tc.role, tc.action)
	}
}

func TestUserHasPermissionFollowsRole(t *testing.T) {
	u := &User{Role: RoleViewer}
	assert.True(t, u.HasPermission("view_metrics"))
	assert.False(t, u.HasPermission("record_fuel"))
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	raw, err := json.Marshal(User{Username: "joana", PasswordHash: "bcrypt-stuff"})
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "bcrypt-stuff")
	assert.Contains(t, string(raw), "joana")
}
