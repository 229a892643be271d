package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const treasuryResource = "treasury"

// NewTreasuryCmd creates the treasury command group
func NewTreasuryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "treasury",
		Aliases: []string{"tx"},
		Short:   "Multi-approval treasury transactions",
		Long: `Treasury transactions move funds out of the treasury once enough
signers have approved them. The approval that reaches the threshold
executes the transfer.`,
	}

	cmd.AddCommand(
		newTreasuryCreateCmd(),
		newTreasuryApproveCmd(),
		newTreasuryRejectCmd(),
		newTreasuryExecuteCmd(),
		newTreasuryListCmd(),
		newTreasuryShowCmd(),
		newTreasuryBalanceCmd(),
		newTreasurySignersCmd(),
	)
	return cmd
}

func newTreasuryCreateCmd() *cobra.Command {
	var (
		to, amount, token, description string
		approvals                      int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Request a transfer out of the treasury",
		Example: `  atomsi treasury create --to 0xabc... --amount 1200 --token USDC \
    --description "Audit invoice #17"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			actor, err := authorize(a, treasuryResource, domain.ActionCreate)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if token == "" {
				token = governanceSymbol(a)
			}
			decimals, err := decimalsOf(ctx, a, token)
			if err != nil {
				return err
			}
			value, err := parseAmount(amount, decimals)
			if err != nil {
				return err
			}

			tx, err := a.Treasury.CreateTransaction(ctx, usecase.CreateTransactionParams{
				Description:       description,
				To:                to,
				Token:             token,
				Amount:            value,
				RequiredApprovals: approvals,
				CreatedBy:         actor,
			})
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), tx); ok {
				return err
			}
			success(cmd, "Transaction %s created, %d approval(s) required", tx.ShortID(), tx.RequiredApprovals)
			return nil
		},
	}

	addTransferFlags(cmd.Flags(), &to, &amount, &token, "Transaction")
	cmd.Flags().StringVar(&description, "description", "", "What the transfer is for (required)")
	cmd.Flags().IntVar(&approvals, "approvals", 0, "Required approvals (defaults to treasury.required_approvals)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newTreasuryApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [transaction...]",
		Short: "Approve pending treasury transactions",
		Long: `Approve one or more pending transactions as a treasury signer. Without
arguments an interactive list of pending transactions is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			signer, err := authorize(a, treasuryResource, domain.ActionRead)
			if err != nil {
				return err
			}

			txs, err := transactionsFromArgs(cmd, a, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var (
				approved []*models.TreasuryTransaction
				errs     []error
			)
			for _, tx := range txs {
				updated, err := a.Treasury.ApproveTransaction(ctx, tx.ID, signer)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", tx.ShortID(), err))
					// a failed execution still leaves the approval recorded
					if updated == nil {
						continue
					}
				}
				approved = append(approved, updated)
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), approved); ok {
				return errors.Join(append(errs, err)...)
			}
			for _, tx := range approved {
				switch tx.Status {
				case models.TransactionStatusExecuted:
					success(cmd, "Transaction %s approved and executed (%s)", tx.ShortID(), tx.ExecutionHash)
				case models.TransactionStatusFailed:
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning(
						fmt.Sprintf("Transaction %s approved but execution failed: %s", tx.ShortID(), tx.Metadata["error"])))
				default:
					success(cmd, "Transaction %s approved (%d/%d)", tx.ShortID(), tx.CurrentApprovals(), tx.RequiredApprovals)
				}
			}
			return errors.Join(errs...)
		},
	}
}

// transactionsFromArgs resolves the given references, or lets the user pick
// pending transactions when none were given
func transactionsFromArgs(cmd *cobra.Command, a *app.App, args []string) ([]*models.TreasuryTransaction, error) {
	ctx := cmd.Context()
	if len(args) > 0 {
		txs := make([]*models.TreasuryTransaction, 0, len(args))
		for _, ref := range args {
			tx, err := a.Transactions.ResolveTransaction(ctx, ref)
			if err != nil {
				return nil, err
			}
			txs = append(txs, tx)
		}
		return txs, nil
	}

	if a.Config.NonInteractive {
		return nil, domain.InvalidParameter("no transaction given (interactive selection is disabled)")
	}
	pending, err := a.Treasury.ListTransactions(ctx, domain.TransactionFilter{Status: models.TransactionStatusPending})
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, domain.NotFound("transaction", "pending")
	}
	return SelectTransactions(pending, tokenDecimals(ctx, a), "Select transactions to approve")
}

func newTreasuryRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <transaction>",
		Short: "Reject a pending treasury transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			signer, err := authorize(a, treasuryResource, domain.ActionRead)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tx, err := a.Transactions.ResolveTransaction(ctx, args[0])
			if err != nil {
				return err
			}
			if err := confirm(cmd, a, fmt.Sprintf("Reject transaction %s (%s)", tx.ShortID(), tx.Description)); err != nil {
				return err
			}
			tx, err = a.Treasury.RejectTransaction(ctx, tx.ID, signer)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), tx); ok {
				return err
			}
			success(cmd, "Transaction %s rejected", tx.ShortID())
			return nil
		},
	}
}

func newTreasuryExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <transaction>",
		Short: "Execute an approved treasury transaction",
		Long:  "Execute an approved transaction. Executing an already executed transaction is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			signer, err := requireActor(a)
			if err != nil {
				return err
			}
			if !a.Permissions.IsSigner(signer) {
				return domain.Unauthorized("%s is not a treasury signer", signer)
			}

			ctx := cmd.Context()
			tx, err := a.Transactions.ResolveTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			a.Progress.OnProgress(ctx, usecase.ProgressEvent{
				Stage:   "treasury",
				Message: fmt.Sprintf("Executing transaction %s...", tx.ShortID()),
				Spinner: true,
			})
			tx, err = a.Treasury.ExecuteTransaction(ctx, tx.ID)
			if err != nil {
				a.Progress.Error("Treasury execution failed")
				return err
			}
			a.Progress.OnProgress(ctx, usecase.ProgressEvent{Stage: "treasury"})

			if ok, err := renderJSON(a, cmd.OutOrStdout(), tx); ok {
				return err
			}
			if tx.Status == models.TransactionStatusFailed {
				return fmt.Errorf("transaction %s failed: %s", tx.ShortID(), tx.Metadata["error"])
			}
			success(cmd, "Transaction %s executed (%s)", tx.ShortID(), tx.ExecutionHash)
			return nil
		},
	}
}

func newTreasuryListCmd() *cobra.Command {
	var status, token, to string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List treasury transactions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			filter := domain.TransactionFilter{
				Status: models.TransactionStatus(strings.ToLower(status)),
				Token:  strings.ToUpper(token),
			}
			if to != "" {
				if filter.To, err = domain.NormalizeAddress(to); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			txs, err := a.Treasury.ListTransactions(ctx, filter)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), txs); ok {
				return err
			}
			return render.NewTreasuryRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).Render(txs)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, executed, ...)")
	cmd.Flags().StringVar(&token, "token", "", "Filter by token symbol")
	cmd.Flags().StringVar(&to, "to", "", "Filter by recipient")
	return cmd
}

func newTreasuryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <transaction>",
		Short: "Show a treasury transaction and its approvals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tx, err := a.Transactions.ResolveTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), tx); ok {
				return err
			}
			return render.NewTreasuryRenderer(cmd.OutOrStdout(), tokenDecimals(ctx, a)).RenderTransaction(tx)
		},
	}
}

func newTreasuryBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the treasury's balance of every token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			balances, err := a.Treasury.GetBalances(cmd.Context())
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), balances); ok {
				return err
			}
			return render.NewTreasuryRenderer(cmd.OutOrStdout(), nil).RenderBalances(a.Treasury.Address(), balances)
		},
	}
}

func newTreasurySignersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signers",
		Short: "List and edit the treasury signer set",
		Long: `Signers approve treasury transactions. Changes are saved to the
permissions file and replace the signers from dao.toml. The set can not
shrink below required_approvals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, treasuryResource, domain.ActionRead); err != nil {
				return err
			}

			signers := a.Permissions.Signers()
			if ok, err := renderJSON(a, cmd.OutOrStdout(), signers); ok {
				return err
			}
			for _, s := range signers {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	cmd.AddCommand(
		newTreasurySignerEditCmd("add", "Added", (*usecase.PermissionManager).AddSigner),
		newTreasurySignerEditCmd("remove", "Removed", (*usecase.PermissionManager).RemoveSigner),
	)
	return cmd
}

func newTreasurySignerEditCmd(verb, done string, edit func(*usecase.PermissionManager, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <address>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a treasury signer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, settingsResource, domain.ActionUpdate); err != nil {
				return err
			}
			if err := edit(a.Permissions, args[0]); err != nil {
				return err
			}
			if !a.Config.JSON {
				success(cmd, "%s signer %s (%d signers)", done, args[0], a.Permissions.SignerCount())
			}
			return nil
		},
	}
}
