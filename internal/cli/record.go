package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/sequence"
	"github.com/roach88/trackview/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	playSettings
	Database string
}

// RecordResult is the record command's output.
type RecordResult struct {
	RunID        string `json:"run_id"`
	Sequence     string `json:"sequence"`
	SequenceHash string `json:"sequence_hash"`
	Frames       int    `json:"frames"`
	Effects      int    `json:"effects"`
	TraceHash    string `json:"trace_hash"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <sequence.xml>...",
		Short: "Play a sequence and store the run",
		Long: `Play a sequence and write the run to the SQLite store.

The store keeps every loaded document (by content hash), the playback
settings and the full effect trace, so the run can later be checked with
'trackview replay' and inspected with 'trackview trace'.

Examples:
  trackview record intro.xml --db ./runs.db
  trackview record intro.xml shots.xml --world world.yaml --fps 60`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyDefaults(cmd, opts.settings().Playback)
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.settings().DB
			}
			return runRecord(opts, args, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runRecord(opts *RecordOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := opts.validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	sess := newSession(playback.NewRunID(), opts.logger())
	entities, err := sess.loadWorld(&opts.playSettings)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	seqs, err := sess.loadFiles(paths)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	seq, err := sess.pick(seqs, opts.Sequence)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	// Documents are stored before playback mutates any track.
	var (
		played  string
		library []string
	)
	for _, s := range seqs {
		hash, err := writeSequence(cmd, st, s)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to store sequence", err)
		}
		if s == seq {
			played = hash
		} else {
			library = append(library, hash)
		}
	}

	out, err := sess.play(ctx, seq, opts.playSettings)
	if err != nil {
		return WrapExitError(ExitCommandError, "playback failed", err)
	}

	meta, err := opts.meta(entities, library)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode run settings", err)
	}
	run := store.Run{
		ID:           out.RunID,
		SequenceHash: played,
		SequenceName: seq.Name(),
		Frames:       int64(out.Frames),
		Meta:         meta,
	}
	traceHash, err := st.WriteRun(ctx, run, out.Effects)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to store run", err)
	}
	opts.logger().Info("recorded run",
		zap.String("run", run.ID),
		zap.String("sequence", run.SequenceName),
		zap.Int("effects", len(out.Effects)))

	result := RecordResult{
		RunID:        run.ID,
		Sequence:     run.SequenceName,
		SequenceHash: played,
		Frames:       out.Frames,
		Effects:      len(out.Effects),
		TraceHash:    traceHash,
	}
	if formatter.JSON() {
		return formatter.Respond(result, nil)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Recorded run %s\n", result.RunID)
	fmt.Fprintf(w, "  Sequence: %s (%s)\n", result.Sequence, result.SequenceHash)
	fmt.Fprintf(w, "  Frames: %d, effects: %d\n", result.Frames, result.Effects)
	fmt.Fprintf(w, "  Trace: %s\n", result.TraceHash)
	return nil
}

func writeSequence(cmd *cobra.Command, st *store.Store, s *sequence.Sequence) (string, error) {
	xml, err := sequence.Marshal(s)
	if err != nil {
		return "", err
	}
	return st.WriteSequence(cmd.Context(), s.Name(), xml)
}
