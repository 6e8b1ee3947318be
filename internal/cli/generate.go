package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skemadb/skema/internal/codegen"
	"github.com/skemadb/skema/internal/config"
	"github.com/skemadb/skema/internal/migrate"
	"github.com/skemadb/skema/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output string // output file path override
}

// GenerateResult is the success payload for the generate command.
type GenerateResult struct {
	Path        string `json:"path"`
	Version     int64  `json:"version"`
	Collections int    `json:"collections"`
	Migrations  int    `json:"migrations"`
	Skipped     int    `json:"skipped,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the schema module from migrations",
		Long: `Resolve migration files into the current schema and write it out
as a builder-syntax module.

Migrations whose recorded fingerprint no longer matches the file on
disk ("changed") are skipped; in-sync and unapplied migrations are
resolved in sequence order. The generated set is recorded in the
status ledger afterwards.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (overrides config)")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return outputError(formatter, ErrCodeConfig, ExitCommandError, err.Error())
	}
	if opts.Output != "" {
		cfg.OutputPath = opts.Output
	}

	migrations, err := migrate.LoadDir(cfg.MigrationsDir)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	if len(migrations) == 0 {
		return formatter.Success(fmt.Sprintf("No migrations in %s; nothing to generate", cfg.MigrationsDir))
	}
	formatter.VerboseLog("Loaded %d migration(s) from %s", len(migrations), cfg.MigrationsDir)

	st, err := openLedger(cfg.StorePath)
	if err != nil {
		return outputError(formatter, ErrCodeStore, ExitCommandError, err.Error())
	}
	defer st.Close()

	// Only in-sync and unapplied migrations participate; a migration
	// that drifted from its recorded fingerprint is held back until it
	// is re-recorded.
	var included []migrate.Migration
	fingerprints := make(map[string]string)
	skipped := 0
	for _, m := range migrations {
		fp, err := migrate.Fingerprint(m)
		if err != nil {
			return outputError(formatter, ErrCodeResolveFailed, ExitFailure, err.Error())
		}
		status, err := st.StatusOf(ctx, m.ID, fp)
		if err != nil {
			return outputError(formatter, ErrCodeStore, ExitCommandError, err.Error())
		}
		if status == store.StatusChanged {
			formatter.VerboseLog("Skipping %s (seq %d): %s", m.Name, m.Seq, status)
			skipped++
			continue
		}
		fingerprints[m.ID] = fp
		included = append(included, m)
	}

	schema, err := migrate.Resolve(included)
	if err != nil {
		return outputError(formatter, ErrCodeResolveFailed, ExitFailure, err.Error())
	}
	if schema == nil {
		return formatter.Success("No migrations eligible; nothing to generate")
	}

	// Encoding must fully succeed before anything touches the
	// filesystem; a failed encode leaves any existing output intact.
	text, err := codegen.EncodeModule(schema)
	if err != nil {
		return outputError(formatter, ErrCodeEncodeFailed, ExitFailure, err.Error())
	}
	text = codegen.Format(text)

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return outputError(formatter, ErrCodeWriteFailed, ExitCommandError, fmt.Sprintf("creating output directory: %v", err))
		}
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(text), 0644); err != nil {
		return outputError(formatter, ErrCodeWriteFailed, ExitCommandError, fmt.Sprintf("writing output file: %v", err))
	}

	for _, m := range included {
		if err := st.Record(ctx, m.ID, m.Name, m.Seq, fingerprints[m.ID]); err != nil {
			return outputError(formatter, ErrCodeStore, ExitCommandError, err.Error())
		}
	}

	result := GenerateResult{
		Path:        cfg.OutputPath,
		Version:     schema.Version,
		Collections: len(schema.Collections),
		Migrations:  len(included),
		Skipped:     skipped,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, cfg.OutputPath)
	return nil
}

// openLedger opens the status store, creating its parent directory.
func openLedger(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return store.Open(path)
}

// outputError prints a diagnostic and returns the matching ExitError.
func outputError(formatter *OutputFormatter, code string, exitCode int, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileError prints a migration compilation error with its
// source position when one is available.
func outputCompileError(formatter *OutputFormatter, err error) error {
	var compileErr *migrate.CompileError
	if errors.As(err, &compileErr) {
		if formatter.Format != "json" && compileErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(),
				compileErr.Pos.Line(),
				compileErr.Pos.Column())
		}
		_ = formatter.Error(ErrCodeCompileFailed, compileErr.Message, compileErr.Field)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeCompileFailed, compileErr.Message))
	}
	return outputError(formatter, ErrCodeCompileFailed, ExitCommandError, err.Error())
}
