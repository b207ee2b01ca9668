package cli

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/track"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Node    string
	Param   string
	Index   int
	Samples int
	Height  int
}

// PlotResult holds the sampled curve.
type PlotResult struct {
	Sequence string    `json:"sequence"`
	Node     string    `json:"node"`
	Param    string    `json:"param"`
	Start    float32   `json:"start"`
	End      float32   `json:"end"`
	Times    []float32 `json:"times"`
	Values   []float64 `json:"values"`
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot <sequence.xml>",
		Short: "Plot a float track over the sequence range",
		Long: `Sample a float track (FOV, NearZ, Timewarp, FixedTimeStep) evenly
over the sequence range and draw it as an ASCII chart.

Examples:
  trackview plot intro.xml --node CamA --param FOV
  trackview plot intro.xml --node Director --param Timewarp --samples 120`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Node, "node", "", "node name (required)")
	_ = cmd.MarkFlagRequired("node")
	cmd.Flags().StringVar(&opts.Param, "param", "FOV", "float parameter to plot")
	cmd.Flags().IntVar(&opts.Index, "index", 0, "track index for repeatable parameters")
	cmd.Flags().IntVar(&opts.Samples, "samples", 80, "number of samples")
	cmd.Flags().IntVar(&opts.Height, "height", 10, "chart height in rows")

	return cmd
}

func runPlot(opts *PlotOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Samples < 2 {
		return NewExitError(ExitCommandError, "samples must be at least 2")
	}
	kind, err := ir.ParseParamKind(opts.Param)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid param", err)
	}

	sess := newSession(playback.NewRunID(), opts.logger())
	seqs, err := sess.loadFiles([]string{path})
	if err != nil {
		return reportLoadError(formatter, err)
	}
	seq := seqs[0]

	n := seq.FindNodeByName(opts.Node, 0)
	if n == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("node %q not found in %s", opts.Node, seq.Name()))
	}
	pt := ir.ParamType{Kind: kind, Index: opts.Index}
	ft, ok := n.Params().Track(pt).(*track.FloatTrack)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("node %q has no float %s track", opts.Node, pt))
	}
	if ft.NumKeys() == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s track of %q has no keys", pt, opts.Node))
	}

	result := samplePlot(ft, seq.TimeRange(), opts.Samples)
	result.Sequence = seq.Name()
	result.Node = opts.Node
	result.Param = pt.String()

	if formatter.JSON() {
		return formatter.Respond(result, nil)
	}
	caption := fmt.Sprintf("%s.%s over %s..%s s", result.Node, result.Param,
		ir.FormatScalar(result.Start), ir.FormatScalar(result.End))
	graph := asciigraph.Plot(result.Values,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Samples),
		asciigraph.Caption(caption))
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}

// samplePlot evaluates t at n evenly spaced times over r, both ends
// included.
func samplePlot(t *track.FloatTrack, r ir.Range, n int) PlotResult {
	res := PlotResult{
		Start:  r.Start,
		End:    r.End,
		Times:  make([]float32, n),
		Values: make([]float64, n),
	}
	step := r.Length() / float32(n-1)
	for i := 0; i < n; i++ {
		at := r.Start + step*float32(i)
		if i == n-1 {
			at = r.End
		}
		v, _ := track.EvalFloat(t, at)
		res.Times[i] = at
		res.Values[i] = float64(v)
	}
	return res
}
