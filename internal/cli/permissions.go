package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

const settingsResource = "settings"

// NewPermissionsCmd creates the permissions command group
func NewPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permissions",
		Aliases: []string{"perms"},
		Short:   "Inspect and edit the role permission table",
		Long: `Roles (member, delegate, council, admin) are granted actions (create,
read, update, delete) on resources such as proposal, vote, treasury and
settings. Admin holds every permission. Changes are saved to the
permissions file.`,
	}

	cmd.AddCommand(
		newPermissionsCheckCmd(),
		newPermissionsGrantCmd(),
		newPermissionsRevokeCmd(),
		newPermissionsListCmd(),
		newPermissionsMembersCmd(),
	)
	return cmd
}

// parseGrant parses the <role> <resource> <action> triple
func parseGrant(args []string) (models.Role, string, domain.Action, error) {
	role, err := models.ParseRole(args[0])
	if err != nil {
		return "", "", "", domain.InvalidParameter("%v", err)
	}
	action, err := domain.ParseAction(args[2])
	if err != nil {
		return "", "", "", err
	}
	return role, args[1], action, nil
}

// roleOrAddress accepts a role name or a member address
func roleOrAddress(a *app.App, s string) (models.Role, error) {
	if domain.IsValidAddress(s) {
		return a.Permissions.RoleOf(s), nil
	}
	role, err := models.ParseRole(s)
	if err != nil {
		return "", domain.InvalidParameter("%q is neither a role nor an address", s)
	}
	return role, nil
}

func newPermissionsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <role|address> <resource> <action>",
		Short: "Check whether a role or member may perform an action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionRead); err != nil {
				return err
			}

			role, err := roleOrAddress(a, args[0])
			if err != nil {
				return err
			}
			action, err := domain.ParseAction(args[2])
			if err != nil {
				return err
			}
			allowed := a.Permissions.HasPermission(role, args[1], action)

			result := struct {
				Role     models.Role   `json:"role"`
				Resource string        `json:"resource"`
				Action   domain.Action `json:"action"`
				Allowed  bool          `json:"allowed"`
			}{role, args[1], action, allowed}
			if ok, err := renderJSON(a, cmd.OutOrStdout(), result); ok {
				return err
			}

			if allowed {
				success(cmd, "%s may %s %s", render.Label(string(role)), action, args[1])
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatError(fmt.Sprintf("%s may not %s %s", render.Label(string(role)), action, args[1])))
			}
			return nil
		},
	}
}

func newPermissionsGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "grant <role> <resource> <action>...",
		Short:   "Grant actions on a resource to a role",
		Example: "  atomsi permissions grant delegate treasury create read",
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionUpdate); err != nil {
				return err
			}

			role, resource, first, err := parseGrant(args)
			if err != nil {
				return err
			}
			actions := []domain.Action{first}
			for _, s := range args[3:] {
				action, err := domain.ParseAction(s)
				if err != nil {
					return err
				}
				actions = append(actions, action)
			}
			if err := a.Permissions.GrantAll(role, resource, actions...); err != nil {
				return err
			}
			if !a.Config.JSON {
				success(cmd, "Granted %s on %s to %s", joinActions(actions), resource, role)
			}
			return nil
		},
	}
}

func joinActions(actions []domain.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

func newPermissionsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <role> <resource> <action>",
		Short: "Revoke an action on a resource from a role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionUpdate); err != nil {
				return err
			}

			role, resource, action, err := parseGrant(args)
			if err != nil {
				return err
			}
			if err := a.Permissions.RevokePermission(role, resource, action); err != nil {
				return err
			}
			if !a.Config.JSON {
				success(cmd, "Revoked %s %s from %s", action, resource, role)
			}
			return nil
		},
	}
}

func newPermissionsListCmd() *cobra.Command {
	var roleName string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List granted permissions by role",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionRead); err != nil {
				return err
			}

			roles := models.Roles
			if roleName != "" {
				role, err := models.ParseRole(roleName)
				if err != nil {
					return domain.InvalidParameter("%v", err)
				}
				roles = []models.Role{role}
			}

			var rows []render.PermissionRow
			for _, role := range roles {
				if role == models.RoleAdmin {
					continue
				}
				grants := a.Permissions.Permissions(role)
				resources := make([]string, 0, len(grants))
				for resource := range grants {
					resources = append(resources, resource)
				}
				sort.Strings(resources)
				for _, resource := range resources {
					rows = append(rows, render.PermissionRow{Role: role, Resource: resource, Actions: grants[resource]})
				}
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), rows); ok {
				return err
			}
			return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderPermissions(rows)
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "", "Only show this role")
	return cmd
}

func newPermissionsMembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List registered members and treasury signers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionRead); err != nil {
				return err
			}

			members := a.Permissions.Members()
			signers := a.Permissions.Signers()

			result := struct {
				Members map[string]models.Role `json:"members"`
				Signers []string               `json:"signers"`
			}{members, signers}
			if ok, err := renderJSON(a, cmd.OutOrStdout(), result); ok {
				return err
			}

			addresses := make([]string, 0, len(members))
			for addr := range members {
				addresses = append(addresses, addr)
			}
			for _, s := range signers {
				if _, ok := members[s]; !ok {
					addresses = append(addresses, s)
				}
			}
			sort.Strings(addresses)

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Address", "Role", "Signer"})
			for _, addr := range addresses {
				signer := ""
				if a.Permissions.IsSigner(addr) {
					signer = "✓"
				}
				t.AppendRow(table.Row{addr, render.Label(string(a.Permissions.RoleOf(addr))), signer})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.AddCommand(newPermissionsMembersSetCmd())
	return cmd
}

func newPermissionsMembersSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <address> <role>",
		Short:   "Assign a role to a member",
		Example: "  atomsi permissions members set 0xabc... delegate",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, domain.ResourceMember, domain.ActionUpdate); err != nil {
				return err
			}

			role, err := models.ParseRole(args[1])
			if err != nil {
				return domain.InvalidParameter("%v", err)
			}
			if err := a.Permissions.SetRole(args[0], role); err != nil {
				return err
			}
			if !a.Config.JSON {
				success(cmd, "%s is now %s", args[0], render.Label(string(role)))
			}
			return nil
		},
	}
}
