package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
)

func TestLeadAccess(t *testing.T) {
	admin := &entity.User{ID: 1, Role: entity.RoleAdmin}
	owner := &entity.User{ID: 7, Role: entity.RoleSalesRep}
	other := &entity.User{ID: 8, Role: entity.RoleSalesRep}

	ownerID := int64(7)
	assigned := &entity.Lead{ID: 1, AssignedTo: &ownerID}
	unassigned := &entity.Lead{ID: 2}

	t.Run("AccessibleBy", func(t *testing.T) {
		assert.True(t, assigned.AccessibleBy(admin))
		assert.True(t, assigned.AccessibleBy(owner))
		assert.False(t, assigned.AccessibleBy(other))

		// Unassigned leads are open to any authenticated user.
		assert.True(t, unassigned.AccessibleBy(other))
	})

	t.Run("OwnedBy", func(t *testing.T) {
		assert.True(t, assigned.OwnedBy(admin))
		assert.True(t, assigned.OwnedBy(owner))
		assert.False(t, assigned.OwnedBy(other))

		// The CRUD surface is stricter: unassigned means admin only.
		assert.False(t, unassigned.OwnedBy(other))
		assert.True(t, unassigned.OwnedBy(admin))
	})
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Jane Roe", (&entity.User{FullName: "Jane Roe", Email: "j@example.com"}).DisplayName())
	assert.Equal(t, "j@example.com", (&entity.User{Email: "j@example.com"}).DisplayName())
	assert.Equal(t, "Administrator", (&entity.User{}).DisplayName())
}
