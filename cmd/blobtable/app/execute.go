package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable/internal/cmd/hints"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Execute runs the blobtable CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     constants.AppName,
		Short:   "Annotated cluster tables for statistical brain maps",
		Version: a.version,
		Long: `blobtable turns a thresholded statistical brain map into publication-ready
cluster tables: one row per cluster with atlas region names, heuristic names,
peak coordinate, peak statistic and network label.

Settings are read from .blobtable.yaml (in $HOME or the working directory),
BLOBTABLE_* environment variables and .env files; flags take precedence.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "reference", Title: "Reference Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.blobtable.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate(constants.AppName + " {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if configFile := mustGetString(cmd, "config"); configFile != "" {
		config, err := LoadConfig(configFile)
		if err != nil {
			return errors.WrapResource("load", "config", configFile, err)
		}
		a.config = config
		a.mu.Lock()
		a.registry = nil
		a.mu.Unlock()
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)
	if err := a.config.Validate(); err != nil {
		return err
	}

	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}
	return nil
}

// ExitOnError prints an error, any recovery hints, and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		if hs := hints.ForError(err); len(hs) > 0 {
			_, _ = os.Stderr.WriteString(hints.Format(hs) + "\n")
		}
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
