package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable/cmd/blobtable/cmd/annotate"
	"github.com/agentstation/blobtable/cmd/blobtable/cmd/atlases"
	"github.com/agentstation/blobtable/cmd/blobtable/cmd/reconcile"
	"github.com/agentstation/blobtable/pkg/constants"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(annotate.NewCommand(a))
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(atlases.NewCommand(a))
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", constants.AppName, a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
