package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// cleanupKey holds the func releasing the store and RPC client
	cleanupKey contextKey = "cleanup"

	// annotationLongRunning marks commands that must not get the --timeout deadline
	annotationLongRunning = "long-running"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "atomsi",
		Short: "Governance and treasury engine for token-weighted DAOs",
		Long: `atomsi runs a DAO's proposal lifecycle and multi-approval treasury.

Members submit proposals, vote with weights derived from their governance
token balance, and approved proposals execute against the treasury. Treasury
transfers outside of proposals go through a signer approval workflow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for commands that don't need a project
			switch cmd.Name() {
			case "version", "help", "completion", "init":
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return fmt.Errorf("%w\nRun 'atomsi init' to create one", err)
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			appInstance, cleanup, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			var cancel context.CancelFunc = func() {}
			if appInstance.Config.Timeout > 0 && cmd.Annotations[annotationLongRunning] == "" {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			ctx = context.WithValue(ctx, cleanupKey, func() {
				cancel()
				cleanup()
			})

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("as", "", "Address to act as (or ATOMSI_ACTOR)")
	rootCmd.PersistentFlags().String("rpc-url", "", "Ethereum RPC endpoint (overrides blockchain.rpc_url)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this long")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "governance",
		Title: "Governance Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "treasury",
		Title: "Treasury Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, c := range []*cobra.Command{NewProposalCmd(), NewVoteCmd(), NewGovernanceCmd()} {
		c.GroupID = "governance"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewTreasuryCmd(), NewTokenCmd()} {
		c.GroupID = "treasury"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewInitCmd(), NewPermissionsCmd(), NewChainCmd(), NewDaemonCmd()} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return executeRoot(ctx, NewRootCmd())
}

// executeRoot runs rootCmd and releases whatever the executed command opened
func executeRoot(ctx context.Context, rootCmd *cobra.Command) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil && cmd.Context() != nil {
		if cleanup, ok := cmd.Context().Value(cleanupKey).(func()); ok {
			cleanup()
		}
	}
	return err
}

// bindGlobalFlags binds command flags to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	// Only bind flags that exist and have been changed
	if f := cmd.Flag("debug"); f != nil && f.Changed {
		v.Set("debug", f.Value.String())
	}
	if f := cmd.Flag("non-interactive"); f != nil && f.Changed {
		v.Set("non_interactive", f.Value.String())
	}
	if f := cmd.Flag("json"); f != nil && f.Changed {
		v.Set("json", f.Value.String())
	}
	if f := cmd.Flag("as"); f != nil && f.Changed {
		v.Set("actor", f.Value.String())
	}
	if f := cmd.Flag("rpc-url"); f != nil && f.Changed {
		v.Set("rpc_url", f.Value.String())
	}
	if f := cmd.Flag("timeout"); f != nil && f.Changed {
		v.Set("timeout", f.Value.String())
	}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
