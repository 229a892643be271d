package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

func TestDefaultPermissionTable(t *testing.T) {
	table := DefaultPermissionTable()

	t.Run("member", func(t *testing.T) {
		assert.True(t, table.Allows(models.RoleMember, ResourceProposal, ActionCreate))
		assert.True(t, table.Allows(models.RoleMember, ResourceProposal, ActionRead))
		assert.True(t, table.Allows(models.RoleMember, ResourceVote, ActionCreate))
		assert.True(t, table.Allows(models.RoleMember, ResourceTreasury, ActionRead))
		assert.False(t, table.Allows(models.RoleMember, ResourceProposal, ActionDelete))
		assert.False(t, table.Allows(models.RoleMember, ResourceProposal, ActionUpdate))
		assert.False(t, table.Allows(models.RoleMember, ResourceTreasury, ActionCreate))
	})

	t.Run("delegate adds proposal update only", func(t *testing.T) {
		assert.True(t, table.Allows(models.RoleDelegate, ResourceProposal, ActionUpdate))
		assert.False(t, table.Allows(models.RoleDelegate, ResourceProposal, ActionDelete))
		assert.False(t, table.Allows(models.RoleMember, ResourceProposal, ActionUpdate), "delegate grants must not leak into member")
	})

	t.Run("council", func(t *testing.T) {
		assert.True(t, table.Allows(models.RoleCouncil, ResourceProposal, ActionDelete))
		assert.True(t, table.Allows(models.RoleCouncil, ResourceToken, ActionCreate))
		assert.True(t, table.Allows(models.RoleCouncil, ResourceTreasury, ActionCreate))
		assert.True(t, table.Allows(models.RoleCouncil, ResourceMember, ActionUpdate))
		assert.True(t, table.Allows(models.RoleCouncil, ResourceSettings, ActionUpdate))
		assert.False(t, table.Allows(models.RoleCouncil, ResourceTreasury, ActionDelete))
	})
}

func TestPermissionTableGrantRevoke(t *testing.T) {
	table := DefaultPermissionTable()

	assert.True(t, table.Grant(models.RoleMember, "audit", ActionRead))
	assert.False(t, table.Grant(models.RoleMember, "audit", ActionRead), "second grant is a no-op")
	assert.True(t, table.Allows(models.RoleMember, "audit", ActionRead))
	assert.Contains(t, table.Resources(), "audit")

	assert.True(t, table.Revoke(models.RoleMember, "audit", ActionRead))
	assert.False(t, table.Revoke(models.RoleMember, "audit", ActionRead))
	assert.False(t, table.Allows(models.RoleMember, "audit", ActionRead))
	assert.NotContains(t, table.Resources(), "audit")
}

func TestPermissionTableClone(t *testing.T) {
	table := DefaultPermissionTable()
	clone := table.Clone()

	clone.Revoke(models.RoleMember, ResourceProposal, ActionCreate)

	assert.True(t, table.Allows(models.RoleMember, ResourceProposal, ActionCreate))
	assert.False(t, clone.Allows(models.RoleMember, ResourceProposal, ActionCreate))
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr)

	_, err = NormalizeAddress("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidParameter)

	assert.True(t, SameAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Update ")
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, a)

	_, err = ParseAction("execute")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
