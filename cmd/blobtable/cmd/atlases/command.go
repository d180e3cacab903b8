// Package atlases provides the atlases command.
package atlases

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable/cmd/application"
	"github.com/agentstation/blobtable/internal/cmd/output"
)

// NewCommand creates the atlases command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "atlases [name]",
		GroupID: "reference",
		Aliases: []string{"atlas"},
		Short:   "List available atlases or show the regions of one",
		Args:    cobra.MaximumNArgs(1),
		Example: `  blobtable atlases            # List atlases
  blobtable atlases glasser    # Show glasser regions, networks and heuristic names
  blobtable atlases -o yaml`,
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			registry, err := app.Registry()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			var names []string
			for _, a := range registry.List() {
				names = append(names, a.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := app.Registry()
			if err != nil {
				return err
			}
			format := output.DetectFormat(app.OutputFormat())

			if len(args) == 1 {
				a, err := registry.Get(args[0])
				if err != nil {
					return err
				}
				return output.Atlas(cmd.OutOrStdout(), format, a)
			}
			return output.Atlases(cmd.OutOrStdout(), format, registry.List())
		},
	}
}
