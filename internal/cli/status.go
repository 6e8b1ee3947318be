package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skemadb/skema/internal/config"
	"github.com/skemadb/skema/internal/migrate"
)

// StatusRow is one migration's status in the status command output.
type StatusRow struct {
	Seq    int64  `json:"seq"`
	Name   string `json:"name"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long: `List every migration on disk with its ledger status:
in sync, changed, or unapplied.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return outputError(formatter, ErrCodeConfig, ExitCommandError, err.Error())
	}

	migrations, err := migrate.LoadDir(cfg.MigrationsDir)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	if len(migrations) == 0 {
		return formatter.Success(fmt.Sprintf("No migrations in %s", cfg.MigrationsDir))
	}

	st, err := openLedger(cfg.StorePath)
	if err != nil {
		return outputError(formatter, ErrCodeStore, ExitCommandError, err.Error())
	}
	defer st.Close()

	rows := make([]StatusRow, 0, len(migrations))
	for _, m := range migrations {
		fp, err := migrate.Fingerprint(m)
		if err != nil {
			return outputError(formatter, ErrCodeResolveFailed, ExitFailure, err.Error())
		}
		status, err := st.StatusOf(ctx, m.ID, fp)
		if err != nil {
			return outputError(formatter, ErrCodeStore, ExitCommandError, err.Error())
		}
		rows = append(rows, StatusRow{
			Seq:    m.Seq,
			Name:   m.Name,
			ID:     m.ID,
			Status: string(status),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(rows)
	}

	for _, row := range rows {
		fmt.Fprintf(formatter.Writer, "%4d  %-32s %s\n", row.Seq, row.Name, row.Status)
	}
	return nil
}
