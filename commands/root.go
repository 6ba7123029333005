// Package commands is the product-console command line.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X product-console/commands.Version=..."
var Version = "dev"

// Execute runs the command line with the process arguments
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Each call has its own state.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "product-console",
		Short: "Browse and manage the product catalog",
		Long: `product-console is a terminal client for the product catalog API.

Log in once, then list, add, update and delete products from the command
line, or open the interactive browser with "product-console browse".`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.product-console/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")
	flags.BoolVar(&a.ephemeral, "ephemeral", false, "keep the session in memory only (seeded from $"+TokenEnv+")")

	root.AddCommand(
		newLoginCommand(a),
		newSignupCommand(a),
		newLogoutCommand(a),
		newListCommand(a),
		newAddCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newBrowseCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// runWithApp opens the app around fn
func runWithApp(a *app, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		if err := a.open(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "product-console %s\n", Version)
		},
	}
}
