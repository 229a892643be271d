package cli

import (
	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// NewGovernanceCmd creates the governance command group
func NewGovernanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "governance",
		Aliases: []string{"gov"},
		Short:   "Voting power and delegation",
	}

	cmd.AddCommand(
		newWeightCmd(),
		newDelegateCmd(),
		newRevokeDelegationCmd(),
		newDelegationsCmd(),
	)
	return cmd
}

// addressArg returns args[0] or the actor when no address was given
func addressArg(a *app.App, args []string) (string, error) {
	if len(args) > 0 {
		return domain.NormalizeAddress(args[0])
	}
	return requireActor(a)
}

func newWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight [address]",
		Short: "Show an address's voting weight",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			address, err := addressArg(a, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			weight, err := a.Governance.GetVotingWeight(ctx, address)
			if err != nil {
				return err
			}
			delegated, err := a.Governance.GetDelegatedVotingPower(ctx, address)
			if err != nil {
				return err
			}

			view := render.WeightView{
				Address:   address,
				Strategy:  a.Governance.Strategy().Name(),
				Weight:    weight.Value,
				Delegated: delegated,
				Metadata:  weight.Metadata,
			}
			if ok, err := renderJSON(a, cmd.OutOrStdout(), view); ok {
				return err
			}
			return render.NewGovernanceRenderer(cmd.OutOrStdout()).RenderWeight(view)
		},
	}
}

func newDelegateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delegate <address>",
		Short: "Delegate voting power to another address",
		Long: `Record a delegation of your current governance token balance to another
address. Delegations are informational: they do not change vote weights.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			actor, err := authorize(a, "vote", domain.ActionCreate)
			if err != nil {
				return err
			}

			d, err := a.Governance.DelegateVotingPower(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), d); ok {
				return err
			}
			success(cmd, "Delegated %s to %s",
				render.FormatTokenAmount(d.Amount, a.Config.DAO.TokenDecimals, governanceSymbol(a)), d.Delegate)
			return nil
		},
	}
}

func newRevokeDelegationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <address>",
		Short: "Revoke a delegation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			actor, err := authorize(a, "vote", domain.ActionCreate)
			if err != nil {
				return err
			}

			if err := a.Governance.RevokeDelegation(cmd.Context(), actor, args[0]); err != nil {
				return err
			}
			if a.Config.JSON {
				return nil
			}
			success(cmd, "Delegation to %s revoked", args[0])
			return nil
		},
	}
}

func newDelegationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delegations [address]",
		Short: "List delegations made to an address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			address, err := addressArg(a, args)
			if err != nil {
				return err
			}

			delegations, err := a.Governance.ListDelegations(cmd.Context(), address)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), delegations); ok {
				return err
			}
			return render.NewGovernanceRenderer(cmd.OutOrStdout()).
				RenderDelegations(address, delegations, a.Config.DAO.TokenDecimals)
		},
	}
}
