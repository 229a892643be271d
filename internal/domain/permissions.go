package domain

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// Action is an operation a role may perform on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists every action
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Actions, a) {
		return "", InvalidParameter("unknown action %q (expected create, read, update or delete)", s)
	}
	return a, nil
}

// Well-known resources guarded by the permission table
const (
	ResourceProposal = "proposal"
	ResourceVote     = "vote"
	ResourceToken    = "token"
	ResourceTreasury = "treasury"
	ResourceMember   = "member"
	ResourceSettings = "settings"
)

// PermissionTable maps role -> resource -> allowed actions.
// Admin is not stored: it is always authorized.
type PermissionTable map[models.Role]map[string][]Action

// DefaultPermissionTable returns the built-in table.
func DefaultPermissionTable() PermissionTable {
	member := map[string][]Action{
		ResourceProposal: {ActionCreate, ActionRead},
		ResourceVote:     {ActionCreate, ActionRead},
		ResourceToken:    {ActionRead},
		ResourceTreasury: {ActionRead},
		ResourceMember:   {ActionRead},
		ResourceSettings: {ActionRead},
	}

	delegate := cloneResources(member)
	delegate[ResourceProposal] = append(delegate[ResourceProposal], ActionUpdate)

	council := cloneResources(delegate)
	council[ResourceProposal] = append(council[ResourceProposal], ActionDelete)
	council[ResourceToken] = append(council[ResourceToken], ActionCreate)
	council[ResourceTreasury] = append(council[ResourceTreasury], ActionCreate)
	council[ResourceMember] = append(council[ResourceMember], ActionUpdate)
	council[ResourceSettings] = append(council[ResourceSettings], ActionUpdate)

	return PermissionTable{
		models.RoleMember:   member,
		models.RoleDelegate: delegate,
		models.RoleCouncil:  council,
	}
}

// Allows consults the table only; callers handle the Admin exemption.
func (t PermissionTable) Allows(role models.Role, resource string, action Action) bool {
	return lo.Contains(t[role][resource], action)
}

// Grant adds action for role on resource. It reports whether the table changed.
func (t PermissionTable) Grant(role models.Role, resource string, action Action) bool {
	if t.Allows(role, resource, action) {
		return false
	}
	if t[role] == nil {
		t[role] = make(map[string][]Action)
	}
	t[role][resource] = append(t[role][resource], action)
	return true
}

// Revoke removes action for role on resource. It reports whether the table changed.
func (t PermissionTable) Revoke(role models.Role, resource string, action Action) bool {
	if !t.Allows(role, resource, action) {
		return false
	}
	remaining := lo.Without(t[role][resource], action)
	if len(remaining) == 0 {
		delete(t[role], resource)
	} else {
		t[role][resource] = remaining
	}
	return true
}

// Resources lists every resource mentioned by any role, sorted.
func (t PermissionTable) Resources() []string {
	var all []string
	for _, resources := range t {
		all = append(all, lo.Keys(resources)...)
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all
}

// Clone returns a deep copy.
func (t PermissionTable) Clone() PermissionTable {
	out := make(PermissionTable, len(t))
	for role, resources := range t {
		out[role] = cloneResources(resources)
	}
	return out
}

func cloneResources(in map[string][]Action) map[string][]Action {
	out := make(map[string][]Action, len(in))
	for resource, actions := range in {
		out[resource] = append([]Action(nil), actions...)
	}
	return out
}

// PermissionState is what the permission store saves: the role table plus the
// member registry and signer set as last edited. Nil fields were never saved.
type PermissionState struct {
	Roles   PermissionTable        `yaml:"roles"`
	Members map[string]models.Role `yaml:"members,omitempty"`
	Signers []string               `yaml:"signers,omitempty"`
}
