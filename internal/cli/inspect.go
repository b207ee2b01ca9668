package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/sequence"
)

// TrackInfo summarizes one track.
type TrackInfo struct {
	Param     string  `json:"param"`
	Index     int     `json:"index,omitempty"`
	ValueType string  `json:"value_type"`
	Keys      int     `json:"keys"`
	Start     float32 `json:"start"`
	End       float32 `json:"end"`
	Flags     uint32  `json:"flags,omitempty"`
}

// NodeInfo summarizes one node.
type NodeInfo struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	ParentID int         `json:"parent_id,omitempty"`
	Disabled bool        `json:"disabled,omitempty"`
	Tracks   []TrackInfo `json:"tracks"`
}

// InspectResult describes a sequence document.
type InspectResult struct {
	Sequence      string     `json:"sequence"`
	Hash          string     `json:"hash"`
	Start         float32    `json:"start"`
	End           float32    `json:"end"`
	Flags         uint32     `json:"flags"`
	FixedTimeStep float32    `json:"fixed_time_step,omitempty"`
	Nodes         []NodeInfo `json:"nodes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <sequence.xml>",
		Short: "Describe the nodes and tracks of a sequence",
		Long: `Load a sequence document and list its nodes, tracks and key counts.

Examples:
  trackview inspect intro.xml
  trackview inspect intro.xml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess := newSession(playback.NewRunID(), opts.logger())
	seqs, err := sess.loadFiles([]string{path})
	if err != nil {
		return reportLoadError(formatter, err)
	}
	result, err := describeSequence(seqs[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to describe sequence", err)
	}

	if formatter.JSON() {
		return formatter.Respond(result, nil)
	}
	outputInspectText(cmd, result)
	return nil
}

func describeSequence(seq *sequence.Sequence) (InspectResult, error) {
	hash, err := sequence.Hash(seq)
	if err != nil {
		return InspectResult{}, err
	}
	r := seq.TimeRange()
	res := InspectResult{
		Sequence:      seq.Name(),
		Hash:          hash,
		Start:         r.Start,
		End:           r.End,
		Flags:         uint32(seq.Flags()),
		FixedTimeStep: seq.FixedTimeStep(),
		Nodes:         []NodeInfo{},
	}
	for _, n := range seq.Nodes() {
		p := n.Params()
		info := NodeInfo{
			ID:       n.ID(),
			Name:     n.Name(),
			Kind:     string(n.Kind()),
			ParentID: p.ParentID(),
			Disabled: p.Disabled(),
			Tracks:   []TrackInfo{},
		}
		for _, t := range p.Tracks() {
			tr := t.TimeRange()
			info.Tracks = append(info.Tracks, TrackInfo{
				Param:     t.ParamType().Kind.String(),
				Index:     t.ParamType().Index,
				ValueType: t.ValueType().String(),
				Keys:      t.NumKeys(),
				Start:     tr.Start,
				End:       tr.End,
				Flags:     uint32(t.Flags()),
			})
		}
		res.Nodes = append(res.Nodes, info)
	}
	return res, nil
}

func outputInspectText(cmd *cobra.Command, r InspectResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Sequence: %s\n", r.Sequence)
	fmt.Fprintf(w, "Range: %g - %g\n", r.Start, r.End)
	if r.FixedTimeStep > 0 {
		fmt.Fprintf(w, "Fixed step: %g\n", r.FixedTimeStep)
	}
	fmt.Fprintf(w, "Flags: %#x\n", r.Flags)
	fmt.Fprintf(w, "Hash: %s\n", r.Hash)
	for _, n := range r.Nodes {
		fmt.Fprintf(w, "\n[%d] %s (%s)", n.ID, n.Name, n.Kind)
		if n.ParentID != 0 {
			fmt.Fprintf(w, " parent=%d", n.ParentID)
		}
		if n.Disabled {
			fmt.Fprint(w, " disabled")
		}
		fmt.Fprintln(w)
		for _, t := range n.Tracks {
			param := t.Param
			if t.Index > 0 {
				param = fmt.Sprintf("%s[%d]", t.Param, t.Index)
			}
			fmt.Fprintf(w, "  %-16s %-10s %3d key(s)\n", param, t.ValueType, t.Keys)
		}
	}
}
