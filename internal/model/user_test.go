package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role          Role
		announcements bool
		floods        bool
		visitors      bool
		incidents     bool
		users         bool
	}{
		{RoleResident, false, false, false, false, false},
		{RoleSecurity, false, true, true, true, false},
		{RoleOfficial, true, true, true, true, false},
		{RoleAdmin, false, false, true, false, true},
		{RoleSuperAdmin, false, false, false, false, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.announcements, tc.role.CanPostAnnouncements())
			assert.Equal(t, tc.floods, tc.role.CanReportFloods())
			assert.Equal(t, tc.visitors, tc.role.CanManageVisitors())
			assert.Equal(t, tc.incidents, tc.role.CanRespondToIncidents())
			assert.Equal(t, tc.users, tc.role.CanManageUsers())
		})
	}
}
