package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// PermissionManager is the role-based gate in front of every mutating
// operation. It also owns the treasury signer set and the member role registry.
type PermissionManager struct {
	mu      sync.RWMutex
	table   domain.PermissionTable
	signers []string
	members map[string]models.Role

	// held from mutation through save so the last save is the latest state
	saveMu   sync.Mutex
	required int

	store PermissionStore
	log   *slog.Logger
}

// NewPermissionManager builds the table from the defaults, loads signers and
// members from configuration, then applies whatever the store saved: role
// overrides and member roles on top, the saved signer set in place of the
// configured one.
func NewPermissionManager(cfg *config.RuntimeConfig, store PermissionStore, log *slog.Logger) (*PermissionManager, error) {
	pm := &PermissionManager{
		table:    domain.DefaultPermissionTable(),
		members:  make(map[string]models.Role),
		required: cfg.Treasury.RequiredApprovals,
		store:    store,
		log:      log.With("component", "permissions"),
	}

	for _, s := range cfg.Treasury.Signers {
		if err := pm.addSigner(s); err != nil {
			return nil, fmt.Errorf("invalid treasury signer: %w", err)
		}
	}

	for addr, roleName := range cfg.Members {
		role, err := models.ParseRole(roleName)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", addr, err)
		}
		if err := pm.setRole(addr, role); err != nil {
			return nil, err
		}
	}

	if store == nil {
		return pm, nil
	}
	saved, err := store.LoadPermissions()
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	if saved == nil {
		return pm, nil
	}
	for role, resources := range saved.Roles {
		pm.table[role] = resources
	}
	for addr, role := range saved.Members {
		role, err := models.ParseRole(string(role))
		if err != nil {
			return nil, fmt.Errorf("saved member %s: %w", addr, err)
		}
		if err := pm.setRole(addr, role); err != nil {
			return nil, fmt.Errorf("saved member: %w", err)
		}
	}
	if saved.Signers != nil {
		pm.signers = nil
		for _, s := range saved.Signers {
			if err := pm.addSigner(s); err != nil {
				return nil, fmt.Errorf("saved treasury signer: %w", err)
			}
		}
	}
	return pm, nil
}

// HasPermission reports whether role may perform action on resource.
// Admin is always authorized, including for resources the table doesn't know.
func (pm *PermissionManager) HasPermission(role models.Role, resource string, action domain.Action) bool {
	if role == models.RoleAdmin {
		return true
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.table.Allows(role, resource, action)
}

// Authorize is HasPermission returning ErrUnauthorized.
func (pm *PermissionManager) Authorize(role models.Role, resource string, action domain.Action) error {
	if !pm.HasPermission(role, resource, action) {
		return domain.Unauthorized("role %s cannot %s %s", role, action, resource)
	}
	return nil
}

// AuthorizeActor resolves the actor's role and authorizes it.
func (pm *PermissionManager) AuthorizeActor(actor, resource string, action domain.Action) (models.Role, error) {
	if _, err := domain.NormalizeAddress(actor); err != nil {
		return "", err
	}
	role := pm.RoleOf(actor)
	return role, pm.Authorize(role, resource, action)
}

// GrantPermission adds action for role on resource and persists the table.
func (pm *PermissionManager) GrantPermission(role models.Role, resource string, action domain.Action) error {
	if role == models.RoleAdmin {
		return nil
	}
	return pm.update(func() (bool, error) {
		if !pm.table.Grant(role, resource, action) {
			return false, nil
		}
		pm.log.Info("permission granted", "role", role, "resource", resource, "action", action)
		return true, nil
	})
}

// GrantAll adds every action for role on resource and persists the table once.
func (pm *PermissionManager) GrantAll(role models.Role, resource string, actions ...domain.Action) error {
	if role == models.RoleAdmin {
		return nil
	}
	return pm.update(func() (bool, error) {
		changed := false
		for _, action := range actions {
			if pm.table.Grant(role, resource, action) {
				changed = true
			}
		}
		if changed {
			pm.log.Info("permissions granted", "role", role, "resource", resource, "actions", actions)
		}
		return changed, nil
	})
}

// RevokePermission removes action for role on resource and persists the table.
func (pm *PermissionManager) RevokePermission(role models.Role, resource string, action domain.Action) error {
	if role == models.RoleAdmin {
		return domain.InvalidParameter("admin permissions cannot be revoked")
	}
	return pm.update(func() (bool, error) {
		if !pm.table.Revoke(role, resource, action) {
			return false, nil
		}
		pm.log.Info("permission revoked", "role", role, "resource", resource, "action", action)
		return true, nil
	})
}

// update applies mutate under the write lock and saves the resulting state
// when it reports a change. Saves happen in mutation order.
func (pm *PermissionManager) update(mutate func() (bool, error)) error {
	pm.saveMu.Lock()
	defer pm.saveMu.Unlock()

	pm.mu.Lock()
	changed, err := mutate()
	var state *domain.PermissionState
	if changed && err == nil {
		state = pm.snapshot()
	}
	pm.mu.Unlock()

	if err != nil || state == nil || pm.store == nil {
		return err
	}
	if err := pm.store.SavePermissions(state); err != nil {
		return fmt.Errorf("failed to save permissions: %w", err)
	}
	return nil
}

// snapshot copies the saved state. Callers hold pm.mu.
func (pm *PermissionManager) snapshot() *domain.PermissionState {
	signers := append([]string(nil), pm.signers...)
	sort.Strings(signers)
	return &domain.PermissionState{
		Roles:   pm.table.Clone(),
		Members: lo.Assign(pm.members),
		Signers: signers,
	}
}

// Permissions returns resource -> actions for role. Admin gets every known
// resource with every action.
func (pm *PermissionManager) Permissions(role models.Role) map[string][]domain.Action {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string][]domain.Action)
	if role == models.RoleAdmin {
		all := []domain.Action{domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete}
		for _, resource := range pm.table.Resources() {
			out[resource] = append([]domain.Action(nil), all...)
		}
		return out
	}
	for resource, actions := range pm.table[role] {
		out[resource] = append([]domain.Action(nil), actions...)
	}
	return out
}

// Resources lists every resource in the table.
func (pm *PermissionManager) Resources() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.table.Resources()
}

// ResourcePermissions returns role -> actions for one resource.
func (pm *PermissionManager) ResourcePermissions(resource string) map[models.Role][]domain.Action {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[models.Role][]domain.Action)
	for role, resources := range pm.table {
		if actions, ok := resources[resource]; ok && len(actions) > 0 {
			out[role] = append([]domain.Action(nil), actions...)
		}
	}
	return out
}

// IsSigner reports whether address belongs to the treasury signer set.
func (pm *PermissionManager) IsSigner(address string) bool {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return lo.Contains(pm.signers, addr)
}

// Signers returns the signer set, sorted.
func (pm *PermissionManager) Signers() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := append([]string(nil), pm.signers...)
	sort.Strings(out)
	return out
}

// SignerCount returns the size of the signer set.
func (pm *PermissionManager) SignerCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.signers)
}

// AddSigner adds address to the signer set and saves it.
func (pm *PermissionManager) AddSigner(address string) error {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	return pm.update(func() (bool, error) {
		if lo.Contains(pm.signers, addr) {
			return false, nil
		}
		pm.signers = append(pm.signers, addr)
		pm.log.Info("signer added", "signer", addr, "signers", len(pm.signers))
		return true, nil
	})
}

// RemoveSigner removes address from the signer set and saves it. The set
// never shrinks below the required approvals or to nothing.
func (pm *PermissionManager) RemoveSigner(address string) error {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	return pm.update(func() (bool, error) {
		if !lo.Contains(pm.signers, addr) {
			return false, domain.NotFound("signer", addr)
		}
		remaining := len(pm.signers) - 1
		if remaining < max(pm.required, 1) {
			return false, domain.InvalidParameter("removing %s leaves %d signers, %d approvals are required",
				addr, remaining, max(pm.required, 1))
		}
		pm.signers = lo.Without(pm.signers, addr)
		pm.log.Info("signer removed", "signer", addr, "signers", remaining)
		return true, nil
	})
}

func (pm *PermissionManager) addSigner(address string) error {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	if !lo.Contains(pm.signers, addr) {
		pm.signers = append(pm.signers, addr)
	}
	return nil
}

// RoleOf returns the registered role of address, Member when unregistered.
func (pm *PermissionManager) RoleOf(address string) models.Role {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return models.RoleMember
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if role, ok := pm.members[addr]; ok {
		return role
	}
	return models.RoleMember
}

// SetRole registers address with role and saves the registry.
func (pm *PermissionManager) SetRole(address string, role models.Role) error {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	role, err = models.ParseRole(string(role))
	if err != nil {
		return domain.InvalidParameter("%v", err)
	}
	return pm.update(func() (bool, error) {
		if current, ok := pm.members[addr]; ok && current == role {
			return false, nil
		}
		pm.members[addr] = role
		pm.log.Info("member role set", "member", addr, "role", role)
		return true, nil
	})
}

func (pm *PermissionManager) setRole(address string, role models.Role) error {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}
	pm.members[addr] = role
	return nil
}

// Members returns a copy of the role registry.
func (pm *PermissionManager) Members() map[string]models.Role {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return lo.Assign(pm.members)
}
