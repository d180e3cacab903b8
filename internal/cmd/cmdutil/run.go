package cmdutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/internal/cmd/alerts"
	"github.com/agentstation/blobtable/internal/cmd/output"
	"github.com/agentstation/blobtable/internal/export"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/logging"
)

// RunContext returns the context for one annotation run: the command
// context bounded by the command timeout, carrying logger and a fresh run ID.
func RunContext(cmd *cobra.Command, logger *zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
	ctx = logging.WithLogger(ctx, logger)
	return logging.WithRunID(ctx, uuid.New().String()), cancel
}

// WriteTables renders tables to the command output in format and, when save
// is set, writes them to the sink chosen by its extension. Warnings go to the
// error stream unless the table format already prints them as a footer.
func WriteTables(ctx context.Context, cmd *cobra.Command, format string, tables *blobtable.Tables, save string) error {
	f := output.DetectFormat(format)
	if err := output.Tables(cmd.OutOrStdout(), f, tables); err != nil {
		return err
	}

	alertWriter := alerts.NewFormatWriter(cmd.ErrOrStderr(), f)
	if f != output.FormatTable {
		for _, warning := range tables.Warnings {
			if err := alertWriter.WriteAlert(alerts.NewWarning(warning)); err != nil {
				return err
			}
		}
	}
	if save == "" {
		return nil
	}

	sink, err := export.ForPath(save)
	if err != nil {
		return err
	}
	receipt, err := sink.Write(ctx, tables)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info().
		Strs("files", receipt.Paths).
		Str("run_id", receipt.RunID).
		Msg("Saved tables")
	return alertWriter.WriteAlert(alerts.NewSuccess("Saved tables").WithDetails(receipt.Paths...))
}
