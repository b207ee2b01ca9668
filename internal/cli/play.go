package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/playback"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	playSettings
	Kind string // only print effects of this kind
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <sequence.xml>...",
		Short: "Play a sequence and print its effects",
		Long: `Play a sequence headlessly and print the recorded effect trace.

Every document is loaded into one library so director sequence keys can
reference the others. The first document's sequence is played unless
--sequence names another one. Camera keys resolve against the entities
of --world.

Examples:
  trackview play intro.xml
  trackview play intro.xml shots.xml --sequence Intro --world world.yaml
  trackview play intro.xml --loop --frames 300 --kind event
  trackview play intro.xml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyDefaults(cmd, opts.settings().Playback)
			return runPlay(opts, args, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only print effects of this kind")

	return cmd
}

func runPlay(opts *PlayOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err := opts.validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	sess := newSession(playback.NewRunID(), opts.logger())
	if _, err := sess.loadWorld(&opts.playSettings); err != nil {
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

	out, err := sess.play(cmd.Context(), seq, opts.playSettings)
	if err != nil {
		return WrapExitError(ExitCommandError, "playback failed", err)
	}
	out.Effects = filterEffects(out.Effects, opts.Kind)

	if formatter.JSON() {
		return formatter.Respond(out, nil)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Sequence: %s\n", out.Sequence)
	fmt.Fprintf(w, "Frames: %d (final time %s)\n", out.Frames, ir.FormatScalar(out.FinalTime))
	fmt.Fprintf(w, "Trace: %s\n\n", out.TraceHash)
	return printEffects(w, out.Effects)
}

// reportLoadError prints err and converts it to an exit error. Missing
// files and bad flags are command errors; bad documents fail the check.
func reportLoadError(f *OutputFormatter, err error) error {
	code, path := ErrCodeGeneric, ""
	var le *LoadError
	if errors.As(err, &le) {
		code, path = le.Code, le.Path
	}
	var details any
	if path != "" {
		details = map[string]string{"path": path}
	}
	if ferr := f.Error(code, err.Error(), details); ferr != nil {
		return ferr
	}
	exit := ExitFailure
	if code == ErrCodeNotFound || code == ErrCodeNoSequence || code == ErrCodeGeneric {
		exit = ExitCommandError
	}
	return WrapExitError(exit, "failed to load input", err)
}

func filterEffects(effects []ir.Effect, kind string) []ir.Effect {
	if kind == "" {
		return effects
	}
	out := []ir.Effect{}
	for _, e := range effects {
		if string(e.Kind) == kind {
			out = append(out, e)
		}
	}
	return out
}

// printEffects writes one aligned line per effect.
func printEffects(w io.Writer, effects []ir.Effect) error {
	if len(effects) == 0 {
		_, err := fmt.Fprintln(w, "No effects.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tKIND\tTARGET\tVALUE")
	for _, e := range effects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.Seq, ir.FormatScalar(ir.Seconds(e.TimeUS)), e.Kind, e.Target, e.Value)
	}
	return tw.Flush()
}
