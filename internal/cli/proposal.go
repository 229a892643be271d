package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const proposalResource = "proposal"

// NewProposalCmd creates the proposal command group
func NewProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"proposals", "p"},
		Short:   "Submit, inspect and execute proposals",
	}

	cmd.AddCommand(
		newProposalSubmitCmd(),
		newProposalStartCmd(),
		newProposalListCmd(),
		newProposalShowCmd(),
		newProposalExecuteCmd(),
		newProposalCancelCmd(),
		newProposalProcessCmd(),
	)
	return cmd
}

type submitOptions struct {
	title       string
	description string
	kind        string
	to          string
	amount      string
	token       string
	target      string
	function    string
	args        []string
	param       string
	value       string
	meta        map[string]string
	start       bool
}

func newProposalSubmitCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new proposal",
		Long: `Submit a new proposal as a draft. The proposer must hold at least the
configured proposal threshold of the governance token.

Kinds:
  transfer          --to <address> --amount <amount> [--token <symbol>]
  contract_call     --target <address> --function "setFee(uint256)" [--arg 100]...
  parameter_change  --param <name> --value <value>
  text              [--meta key=value]...`,
		Example: `  atomsi proposal submit --kind transfer --title "Fund grants" \
    --description "Q3 grants budget" --to 0xabc... --amount 2500
  atomsi proposal submit --kind text --title "Adopt charter" \
    --description "See forum thread" --meta url=https://forum.example/t/42 --start`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			proposer, err := authorize(a, proposalResource, domain.ActionCreate)
			if err != nil {
				return err
			}

			payload, err := buildPayload(cmd, a, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.ProposalManager.SubmitProposal(ctx, usecase.SubmitProposalParams{
				Title:       opts.title,
				Description: opts.description,
				Proposer:    proposer,
				Payload:     payload,
			})
			if err != nil {
				return err
			}
			if opts.start {
				if p, err = a.ProposalManager.StartVoting(ctx, p.ID); err != nil {
					return err
				}
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), p); ok {
				return err
			}
			success(cmd, "Proposal %s submitted", p.ShortID())
			return render.NewProposalsRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).RenderProposal(p)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.title, "title", "", "Proposal title (required)")
	f.StringVar(&opts.description, "description", "", "Proposal description (required)")
	f.StringVar(&opts.kind, "kind", string(models.ProposalKindText), "transfer, contract_call, parameter_change or text")
	addTransferFlags(f, &opts.to, &opts.amount, &opts.token, "Transfer")
	f.StringVar(&opts.target, "target", "", "Contract call target")
	f.StringVar(&opts.function, "function", "", "Contract function signature")
	f.StringArrayVar(&opts.args, "arg", nil, "Contract call argument (repeatable)")
	f.StringVar(&opts.param, "param", "", "Governance parameter name")
	f.StringVar(&opts.value, "value", "", "Governance parameter value")
	f.StringToStringVar(&opts.meta, "meta", nil, "Text proposal metadata key=value (repeatable)")
	f.BoolVar(&opts.start, "start", false, "Open voting immediately")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func buildPayload(cmd *cobra.Command, a *app.App, opts submitOptions) (models.ProposalPayload, error) {
	switch models.ProposalKind(strings.ToLower(opts.kind)) {
	case models.ProposalKindTransfer:
		token := opts.token
		if token == "" {
			token = governanceSymbol(a)
		}
		decimals, err := decimalsOf(cmd.Context(), a, token)
		if err != nil {
			return models.ProposalPayload{}, err
		}
		amount, err := parseAmount(opts.amount, decimals)
		if err != nil {
			return models.ProposalPayload{}, err
		}
		return models.NewTransferPayload(opts.to, amount, token), nil
	case models.ProposalKindContractCall:
		return models.NewContractCallPayload(opts.target, opts.function, opts.args), nil
	case models.ProposalKindParameterChange:
		return models.NewParameterChangePayload(opts.param, opts.value), nil
	case models.ProposalKindText:
		var metadata map[string]any
		if len(opts.meta) > 0 {
			metadata = make(map[string]any, len(opts.meta))
			for k, v := range opts.meta {
				metadata[k] = v
			}
		}
		return models.NewTextPayload(metadata), nil
	default:
		return models.ProposalPayload{}, domain.InvalidParameter("unknown proposal kind %q", opts.kind)
	}
}

func newProposalStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <proposal>",
		Short: "Open voting on a draft proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, proposalResource, domain.ActionCreate); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.Proposals.ResolveProposal(ctx, args[0])
			if err != nil {
				return err
			}
			p, err = a.ProposalManager.StartVoting(ctx, p.ID)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), p); ok {
				return err
			}
			success(cmd, "Voting open on %s until %s", p.ShortID(), p.VotingEndsAt.UTC().Format("2006-01-02 15:04:05 UTC"))
			return nil
		},
	}
}

// NewVoteCmd creates the top-level vote command
func NewVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <proposal> <yes|no|abstain>",
		Short: "Cast a vote on a proposal",
		Long: `Cast a vote on a proposal in its voting window. The vote is weighted by
the voter's governance token balance under the configured voting strategy.
Each address votes once per proposal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			voter, err := authorize(a, "vote", domain.ActionCreate)
			if err != nil {
				return err
			}
			choice, err := models.ParseVoteChoice(args[1])
			if err != nil {
				return domain.InvalidParameter("%v", err)
			}

			ctx := cmd.Context()
			p, err := a.Proposals.ResolveProposal(ctx, args[0])
			if err != nil {
				return err
			}
			vote, err := a.Governance.SubmitVote(ctx, p.ID, voter, choice)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), vote); ok {
				return err
			}
			success(cmd, "Voted %s on %s with weight %s", vote.Choice, p.ShortID(), vote.Weight)
			return nil
		},
	}
}

func newProposalListCmd() *cobra.Command {
	var state, proposer, kind string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proposals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			filter := domain.ProposalFilter{
				State: models.ProposalState(strings.ToLower(state)),
				Kind:  models.ProposalKind(strings.ToLower(kind)),
			}
			if proposer != "" {
				if filter.Proposer, err = domain.NormalizeAddress(proposer); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			proposals, err := a.ProposalManager.ListProposals(ctx, filter)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), proposals); ok {
				return err
			}
			return render.NewProposalsRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).Render(proposals)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (draft, voting, approved, ...)")
	cmd.Flags().StringVar(&proposer, "proposer", "", "Filter by proposer address")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by payload kind")
	return cmd
}

func newProposalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <proposal>",
		Short: "Show a proposal and its votes",
		Long:  "Show a proposal. The reference can be a full id, an id prefix or part of the title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.Proposals.ResolveProposal(ctx, args[0])
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), p); ok {
				return err
			}
			return render.NewProposalsRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).RenderProposal(p)
		},
	}
}

func newProposalExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <proposal>",
		Short: "Execute an approved proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, proposalResource, domain.ActionUpdate); err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.Proposals.ResolveProposal(ctx, args[0])
			if err != nil {
				return err
			}
			if p.State == models.ProposalStateApproved {
				if err := confirm(cmd, a, fmt.Sprintf("Execute %s proposal %q", p.Payload.Kind, p.Title)); err != nil {
					return err
				}
			}

			a.Progress.OnProgress(ctx, usecase.ProgressEvent{
				Stage:   "execute",
				Message: fmt.Sprintf("Executing proposal %s...", p.ShortID()),
				Spinner: true,
			})
			executed, err := a.ProposalManager.ExecuteProposal(ctx, p.ID)
			if err != nil {
				a.Progress.Error(fmt.Sprintf("Execution of %s failed", p.ShortID()))
				return err
			}
			a.Progress.OnProgress(ctx, usecase.ProgressEvent{
				Stage:   "execute",
				Message: fmt.Sprintf("Proposal %s executed", p.ShortID()),
			})

			if ok, err := renderJSON(a, cmd.OutOrStdout(), executed); ok {
				return err
			}
			if executed.ExecutionHash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Transaction: %s\n", executed.ExecutionHash)
			}
			return nil
		},
	}
}

func newProposalCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <proposal>",
		Short: "Cancel a draft or voting proposal",
		Long:  "Cancel a proposal before it is finalized. Only the proposer may cancel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			actor, err := authorize(a, proposalResource, domain.ActionCreate)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := a.Proposals.ResolveProposal(ctx, args[0])
			if err != nil {
				return err
			}
			if err := confirm(cmd, a, fmt.Sprintf("Cancel proposal %q", p.Title)); err != nil {
				return err
			}
			p, err = a.ProposalManager.CancelProposal(ctx, p.ID, actor)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), p); ok {
				return err
			}
			success(cmd, "Proposal %s cancelled", p.ShortID())
			return nil
		},
	}
}

func newProposalProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Finalize proposals whose voting period has ended",
		Long: `Finalize every voting proposal whose window has closed. Each becomes
approved when quorum and majority are both reached, rejected otherwise.
The daemon runs this on an interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			result, err := a.Governance.Process(ctx)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), result); ok {
				return err
			}
			return render.NewProposalsRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).RenderProcessResult(result)
		},
	}
}
