package render

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// GovernanceRenderer renders voting power, delegations and permissions
type GovernanceRenderer struct {
	out io.Writer
}

// NewGovernanceRenderer creates a new governance renderer
func NewGovernanceRenderer(out io.Writer) *GovernanceRenderer {
	return &GovernanceRenderer{out: out}
}

// WeightView is what `governance weight` shows
type WeightView struct {
	Address   string            `json:"address"`
	Strategy  string            `json:"strategy"`
	Weight    *big.Int          `json:"weight"`
	Delegated *big.Int          `json:"delegated"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RenderWeight prints an address's voting weight
func (r *GovernanceRenderer) RenderWeight(v WeightView) error {
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Voter"), addressStyle.Sprint(v.Address))
	fmt.Fprintf(r.out, "  Strategy:  %s\n", Label(v.Strategy))
	fmt.Fprintf(r.out, "  Weight:    %s\n", amountStyle.Sprint(v.Weight.String()))
	if v.Delegated != nil && v.Delegated.Sign() > 0 {
		fmt.Fprintf(r.out, "  Delegated: %s %s\n", v.Delegated.String(), faintStyle.Sprint("(informational, not counted in votes)"))
	}

	keys := make([]string, 0, len(v.Metadata))
	for k := range v.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s: %s\n", k, v.Metadata[k])
	}
	return nil
}

// RenderDelegations lists delegations made to one address
func (r *GovernanceRenderer) RenderDelegations(delegate string, delegations []*models.Delegation, decimals uint8) error {
	if len(delegations) == 0 {
		fmt.Fprintf(r.out, "No delegations to %s\n", delegate)
		return nil
	}

	total := new(big.Int)
	t := newTable(table.Row{"Delegator", "Amount", "Since"})
	for _, d := range delegations {
		t.AppendRow(table.Row{d.Delegator, FormatAmount(d.Amount, decimals), formatTime(d.CreatedAt)})
		if d.Amount != nil {
			total.Add(total, d.Amount)
		}
	}
	t.AppendFooter(table.Row{"Total", FormatAmount(total, decimals), ""})
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// PermissionRow is one role's actions on one resource
type PermissionRow struct {
	Role     models.Role     `json:"role"`
	Resource string          `json:"resource"`
	Actions  []domain.Action `json:"actions"`
}

// RenderPermissions prints a role x resource grid
func (r *GovernanceRenderer) RenderPermissions(rows []PermissionRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "No permissions granted")
		return nil
	}

	t := newTable(table.Row{"Role", "Resource", "Actions"})
	for _, row := range rows {
		actions := make([]string, len(row.Actions))
		for i, a := range row.Actions {
			actions[i] = string(a)
		}
		sort.Strings(actions)
		t.AppendRow(table.Row{Label(string(row.Role)), row.Resource, fmt.Sprint(actions)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	fmt.Fprintln(r.out, t.Render())
	return nil
}
