package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string // optional - filter to one effect kind
}

// TraceResult holds the stored trace of one run.
type TraceResult struct {
	RunID     string            `json:"run_id"`
	Sequence  string            `json:"sequence"`
	Frames    int64             `json:"frames"`
	TraceHash string            `json:"trace_hash"`
	Meta      map[string]string `json:"meta"`
	Timeline  []ir.Effect       `json:"timeline"`
	Stats     TraceStats        `json:"stats"`
}

// TraceStats counts the effects of a run by kind.
type TraceStats struct {
	TotalEffects int            `json:"total_effects"`
	ByKind       map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the stored trace of a run",
		Long: `Show the effect timeline of a recorded run.

Without --run the runs in the database are listed instead.

Examples:
  trackview trace --db ./runs.db
  trackview trace --db ./runs.db --run 0190c1d2-...
  trackview trace --db ./runs.db --run 0190c1d2-... --kind camera --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.settings().DB
			}
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to show")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one effect kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRuns(cmd, formatter, runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var effects []ir.Effect
	if opts.Kind != "" {
		effects, err = st.ReadEffectsOfKind(ctx, run.ID, ir.EffectKind(opts.Kind))
	} else {
		effects, err = st.ReadEffects(ctx, run.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read effects", err)
	}

	result := TraceResult{
		RunID:     run.ID,
		Sequence:  run.SequenceName,
		Frames:    run.Frames,
		TraceHash: run.TraceHash,
		Meta:      run.Meta,
		Timeline:  effects,
		Stats:     TraceStats{TotalEffects: len(effects), ByKind: map[string]int{}},
	}
	for _, e := range effects {
		result.Stats.ByKind[string(e.Kind)]++
	}

	if formatter.JSON() {
		return formatter.Respond(result, nil)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

func outputRuns(cmd *cobra.Command, f *OutputFormatter, runs []store.Run) error {
	if f.JSON() {
		return f.Respond(runs, nil)
	}
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-20s %6d frames  %s\n", run.ID, run.SequenceName, run.Frames, run.TraceHash)
	}
	return nil
}

func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Sequence: %s (%d frames)\n", result.Sequence, result.Frames)
	fmt.Fprintf(w, "Trace: %s\n", result.TraceHash)
	if verbose {
		for _, k := range store.MetaKeys(result.Meta) {
			fmt.Fprintf(w, "  %s = %s\n", k, result.Meta[k])
		}
	}
	fmt.Fprintln(w)

	if err := printEffects(w, result.Timeline); err != nil {
		return err
	}

	kinds := make([]string, 0, len(result.Stats.ByKind))
	for k := range result.Stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "\nStats: %d effects\n", result.Stats.TotalEffects)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, result.Stats.ByKind[k])
	}
	return nil
}
