package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tourbook/permissions"
	"tourbook/shared/constant"
)

func TestCan(t *testing.T) {
	admin := permissions.Actor{ID: "admin-1", Role: constant.RoleAdmin}
	user := permissions.Actor{ID: "user-1", Role: constant.RoleUser}

	tests := []struct {
		name     string
		actor    permissions.Actor
		action   permissions.Action
		resource permissions.Resource
		ownerID  string
		expected bool
	}{
		{
			name:     "admin can manage any booking",
			actor:    admin,
			action:   permissions.ActionCancel,
			resource: permissions.ResourceBooking,
			ownerID:  "someone-else",
			expected: true,
		},
		{
			name:     "admin can verify tickets",
			actor:    admin,
			action:   permissions.ActionVerify,
			resource: permissions.ResourceBooking,
			expected: true,
		},
		{
			name:     "user can create booking",
			actor:    user,
			action:   permissions.ActionCreate,
			resource: permissions.ResourceBooking,
			expected: true,
		},
		{
			name:     "user can cancel own booking",
			actor:    user,
			action:   permissions.ActionCancel,
			resource: permissions.ResourceBooking,
			ownerID:  "user-1",
			expected: true,
		},
		{
			name:     "user cannot cancel another user's booking",
			actor:    user,
			action:   permissions.ActionCancel,
			resource: permissions.ResourceBooking,
			ownerID:  "user-2",
			expected: false,
		},
		{
			name:     "user cannot cancel booking without owner",
			actor:    user,
			action:   permissions.ActionCancel,
			resource: permissions.ResourceBooking,
			ownerID:  "",
			expected: false,
		},
		{
			name:     "user cannot verify tickets",
			actor:    user,
			action:   permissions.ActionVerify,
			resource: permissions.ResourceBooking,
			expected: false,
		},
		{
			name:     "user cannot create tour",
			actor:    user,
			action:   permissions.ActionCreate,
			resource: permissions.ResourceTour,
			expected: false,
		},
		{
			name:     "user can delete own review",
			actor:    user,
			action:   permissions.ActionDelete,
			resource: permissions.ResourceReview,
			ownerID:  "user-1",
			expected: true,
		},
		{
			name:     "unknown role is denied",
			actor:    permissions.Actor{ID: "x", Role: "ghost"},
			action:   permissions.ActionRead,
			resource: permissions.ResourceTour,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, permissions.Can(tt.actor, tt.action, tt.resource, tt.ownerID))
		})
	}
}

func TestFindPermissions(t *testing.T) {
	data := permissions.Get()
	assert.NotNil(t, data)

	t.Run("known endpoint", func(t *testing.T) {
		perm := data.FindPermissions("/v1/bookings", "POST")
		assert.Equal(t, "/v1/bookings", perm.Path)
		assert.Contains(t, perm.Permissions, constant.RoleUser)
	})

	t.Run("public endpoint is skipped", func(t *testing.T) {
		perm := data.FindPermissions("/v1/tours", "GET")
		assert.True(t, perm.Skip)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		perm := data.FindPermissions("/v1/unknown", "GET")
		assert.Empty(t, perm.Path)
	})
}
