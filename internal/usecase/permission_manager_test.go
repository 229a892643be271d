package usecase_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// MockPermissionStore is a mock implementation of PermissionStore
type MockPermissionStore struct {
	mock.Mock
}

func (m *MockPermissionStore) LoadPermissions() (*domain.PermissionState, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PermissionState), args.Error(1)
}

func (m *MockPermissionStore) SavePermissions(state *domain.PermissionState) error {
	return m.Called(state).Error(0)
}

// recordingStore keeps the last saved state
type recordingStore struct {
	mu    sync.Mutex
	saves int
	last  *domain.PermissionState
}

func (s *recordingStore) LoadPermissions() (*domain.PermissionState, error) {
	return nil, nil
}

func (s *recordingStore) SavePermissions(state *domain.PermissionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = state
	return nil
}

func newPermissionManager(t *testing.T, store usecase.PermissionStore) *usecase.PermissionManager {
	t.Helper()
	cfg := testConfig()
	cfg.Members = map[string]string{
		bob:   "delegate",
		carol: "council",
		dave:  "admin",
	}
	pm, err := usecase.NewPermissionManager(cfg, store, discardLogger())
	require.NoError(t, err)
	return pm
}

func TestHasPermission(t *testing.T) {
	pm := newPermissionManager(t, nil)

	tests := []struct {
		role     models.Role
		resource string
		action   domain.Action
		want     bool
	}{
		{models.RoleMember, domain.ResourceProposal, domain.ActionCreate, true},
		{models.RoleMember, domain.ResourceProposal, domain.ActionRead, true},
		{models.RoleMember, domain.ResourceProposal, domain.ActionDelete, false},
		{models.RoleMember, domain.ResourceProposal, domain.ActionUpdate, false},
		{models.RoleMember, domain.ResourceTreasury, domain.ActionCreate, false},
		{models.RoleDelegate, domain.ResourceProposal, domain.ActionUpdate, true},
		{models.RoleDelegate, domain.ResourceProposal, domain.ActionDelete, false},
		{models.RoleCouncil, domain.ResourceProposal, domain.ActionDelete, true},
		{models.RoleCouncil, domain.ResourceToken, domain.ActionCreate, true},
		{models.RoleCouncil, domain.ResourceSettings, domain.ActionUpdate, true},
		{models.RoleCouncil, domain.ResourceSettings, domain.ActionDelete, false},
		{models.RoleAdmin, "anything", domain.ActionDelete, true},
		{models.RoleAdmin, domain.ResourceTreasury, domain.ActionUpdate, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pm.HasPermission(tt.role, tt.resource, tt.action),
			"%s %s %s", tt.role, tt.action, tt.resource)
	}
}

func TestAuthorizeActor(t *testing.T) {
	pm := newPermissionManager(t, nil)

	role, err := pm.AuthorizeActor(alice, domain.ResourceProposal, domain.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)

	_, err = pm.AuthorizeActor(alice, domain.ResourceTreasury, domain.ActionCreate)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	role, err = pm.AuthorizeActor(carol, domain.ResourceTreasury, domain.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCouncil, role)

	_, err = pm.AuthorizeActor("nope", domain.ResourceProposal, domain.ActionRead)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGrantAndRevokePersist(t *testing.T) {
	store := new(MockPermissionStore)
	store.On("LoadPermissions").Return(nil, nil)
	store.On("SavePermissions", mock.Anything).Return(nil)

	pm := newPermissionManager(t, store)

	require.NoError(t, pm.GrantPermission(models.RoleMember, domain.ResourceTreasury, domain.ActionCreate))
	assert.True(t, pm.HasPermission(models.RoleMember, domain.ResourceTreasury, domain.ActionCreate))

	// granting an existing permission changes nothing and saves nothing
	require.NoError(t, pm.GrantPermission(models.RoleMember, domain.ResourceTreasury, domain.ActionCreate))

	require.NoError(t, pm.RevokePermission(models.RoleMember, domain.ResourceProposal, domain.ActionCreate))
	assert.False(t, pm.HasPermission(models.RoleMember, domain.ResourceProposal, domain.ActionCreate))

	store.AssertNumberOfCalls(t, "SavePermissions", 2)

	err := pm.RevokePermission(models.RoleAdmin, domain.ResourceProposal, domain.ActionRead)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	t.Run("new resources", func(t *testing.T) {
		require.NoError(t, pm.GrantPermission(models.RoleCouncil, "grants", domain.ActionUpdate))
		assert.Contains(t, pm.Resources(), "grants")
		assert.Equal(t, []domain.Action{domain.ActionUpdate}, pm.ResourcePermissions("grants")[models.RoleCouncil])
		assert.Contains(t, pm.Permissions(models.RoleAdmin), "grants")
	})
}

func TestGrantAllSavesOnce(t *testing.T) {
	store := new(MockPermissionStore)
	store.On("LoadPermissions").Return(nil, nil)
	store.On("SavePermissions", mock.Anything).Return(nil)

	pm := newPermissionManager(t, store)

	// member already reads the treasury; only create and update are new
	require.NoError(t, pm.GrantAll(models.RoleMember, domain.ResourceTreasury,
		domain.ActionRead, domain.ActionCreate, domain.ActionUpdate))
	assert.True(t, pm.HasPermission(models.RoleMember, domain.ResourceTreasury, domain.ActionCreate))
	assert.True(t, pm.HasPermission(models.RoleMember, domain.ResourceTreasury, domain.ActionUpdate))
	store.AssertNumberOfCalls(t, "SavePermissions", 1)

	require.NoError(t, pm.GrantAll(models.RoleMember, domain.ResourceTreasury, domain.ActionCreate))
	require.NoError(t, pm.GrantAll(models.RoleAdmin, domain.ResourceTreasury, domain.ActionDelete))
	store.AssertNumberOfCalls(t, "SavePermissions", 1)
}

func TestSavedOverridesReplaceRoles(t *testing.T) {
	store := new(MockPermissionStore)
	store.On("LoadPermissions").Return(&domain.PermissionState{
		Roles: domain.PermissionTable{
			models.RoleMember: {domain.ResourceProposal: {domain.ActionRead}},
		},
	}, nil)

	pm := newPermissionManager(t, store)
	assert.False(t, pm.HasPermission(models.RoleMember, domain.ResourceProposal, domain.ActionCreate))
	assert.False(t, pm.HasPermission(models.RoleMember, domain.ResourceVote, domain.ActionCreate))
	// untouched roles keep their defaults
	assert.True(t, pm.HasPermission(models.RoleDelegate, domain.ResourceProposal, domain.ActionUpdate))
}

func TestLoadPermissionsError(t *testing.T) {
	store := new(MockPermissionStore)
	store.On("LoadPermissions").Return(nil, errors.New("disk on fire"))

	_, err := usecase.NewPermissionManager(testConfig(), store, discardLogger())
	assert.Error(t, err)
}

func TestSigners(t *testing.T) {
	pm := newPermissionManager(t, nil)

	assert.Equal(t, 3, pm.SignerCount())
	assert.True(t, pm.IsSigner(signer1))
	assert.False(t, pm.IsSigner(alice))
	assert.False(t, pm.IsSigner("garbage"))

	require.NoError(t, pm.AddSigner(alice))
	require.NoError(t, pm.AddSigner(alice))
	assert.Equal(t, 4, pm.SignerCount())

	require.NoError(t, pm.RemoveSigner(signer1))
	assert.Equal(t, []string{alice, signer2, signer3}, pm.Signers())
}

func TestMemberRoles(t *testing.T) {
	pm := newPermissionManager(t, nil)

	assert.Equal(t, models.RoleMember, pm.RoleOf(alice))
	assert.Equal(t, models.RoleDelegate, pm.RoleOf(bob))
	assert.Equal(t, models.RoleAdmin, pm.RoleOf(dave))

	require.NoError(t, pm.SetRole(alice, models.RoleCouncil))
	assert.Equal(t, models.RoleCouncil, pm.RoleOf(alice))
	assert.Len(t, pm.Members(), 4)

	cfg := testConfig()
	cfg.Members = map[string]string{alice: "overlord"}
	_, err := usecase.NewPermissionManager(cfg, nil, discardLogger())
	assert.Error(t, err)
}

func TestRoleAndSignerChangesPersist(t *testing.T) {
	store := &recordingStore{}
	pm := newPermissionManager(t, store)

	require.NoError(t, pm.SetRole(alice, models.RoleCouncil))
	require.NotNil(t, store.last)
	assert.Equal(t, models.RoleCouncil, store.last.Members[alice])
	assert.Equal(t, models.RoleDelegate, store.last.Members[bob])

	// same role again is not a change
	require.NoError(t, pm.SetRole(alice, models.RoleCouncil))
	assert.Equal(t, 1, store.saves)

	require.NoError(t, pm.AddSigner(alice))
	assert.Equal(t, []string{alice, signer1, signer2, signer3}, store.last.Signers)

	require.NoError(t, pm.RemoveSigner(signer1))
	assert.Equal(t, []string{alice, signer2, signer3}, store.last.Signers)
	assert.Equal(t, 3, store.saves)

	err := pm.SetRole(alice, models.Role("overlord"))
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, 3, store.saves)
}

func TestRemoveSignerKeepsRequiredApprovals(t *testing.T) {
	store := &recordingStore{}
	pm := newPermissionManager(t, store)

	err := pm.RemoveSigner(alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, pm.RemoveSigner(signer3))

	// two signers left and two approvals required
	err = pm.RemoveSigner(signer2)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, []string{signer1, signer2}, pm.Signers())
	assert.Equal(t, 1, store.saves)
}

func TestSavedMembersAndSignersApply(t *testing.T) {
	store := new(MockPermissionStore)
	store.On("LoadPermissions").Return(&domain.PermissionState{
		Members: map[string]models.Role{
			alice: models.RoleCouncil,
			// demotes the configured delegate
			bob: models.RoleMember,
		},
		Signers: []string{signer2, alice},
	}, nil)

	pm := newPermissionManager(t, store)
	assert.Equal(t, models.RoleCouncil, pm.RoleOf(alice))
	assert.Equal(t, models.RoleMember, pm.RoleOf(bob))
	assert.Equal(t, models.RoleCouncil, pm.RoleOf(carol))
	assert.Equal(t, []string{alice, signer2}, pm.Signers())
	assert.False(t, pm.IsSigner(signer1))

	// default roles survive a saved state without overrides
	assert.True(t, pm.HasPermission(models.RoleMember, domain.ResourceProposal, domain.ActionCreate))

	t.Run("invalid saved role", func(t *testing.T) {
		bad := new(MockPermissionStore)
		bad.On("LoadPermissions").Return(&domain.PermissionState{
			Members: map[string]models.Role{alice: "overlord"},
		}, nil)
		_, err := usecase.NewPermissionManager(testConfig(), bad, discardLogger())
		assert.Error(t, err)
	})
}

func TestConcurrentChangesSaveLatestState(t *testing.T) {
	store := &recordingStore{}
	pm := newPermissionManager(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		resource := fmt.Sprintf("grants-%d", i%5)
		go func() {
			defer wg.Done()
			assert.NoError(t, pm.GrantPermission(models.RoleMember, resource, domain.ActionUpdate))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, pm.RevokePermission(models.RoleMember, resource, domain.ActionUpdate))
		}()
	}
	wg.Wait()

	require.NotNil(t, store.last)
	assert.Equal(t, pm.Permissions(models.RoleMember), map[string][]domain.Action(store.last.Roles[models.RoleMember]))
}
