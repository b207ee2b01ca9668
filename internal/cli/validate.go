package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/trackview/internal/harness"
	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/sequence"
)

// maxValidateWorkers bounds concurrent document checks.
const maxValidateWorkers = 8

// FileResult is the validation outcome of one file.
type FileResult struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"` // "sequence" or "scenario"
	Valid  bool   `json:"valid"`
	Name   string `json:"name,omitempty"`
	Nodes  int    `json:"nodes,omitempty"`
	Tracks int    `json:"tracks,omitempty"`
	Keys   int    `json:"keys,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate sequence documents and scenarios",
		Long: `Validate sequence XML documents and scenario YAML files.

Sequence documents (.xml) are fully loaded: unknown node types, bad
track payloads and duplicate node ids are reported. Scenario files
(.yaml, .yml) are checked against the scenario schema and their
referenced sequence files must exist. Files are checked concurrently;
results are reported in argument order.

Examples:
  trackview validate intro.xml shots.xml
  trackview validate scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	results := make([]FileResult, len(paths))
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxValidateWorkers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = validateFile(opts, path)
			return nil
		})
	}
	_ = g.Wait()

	result := ValidationResult{Valid: true, Files: results}
	for _, r := range results {
		formatter.VerboseLog("checked %s (%s)", r.Path, r.Kind)
		if !r.Valid {
			result.Valid = false
		}
	}

	if formatter.JSON() {
		var failure *CLIError
		if !result.Valid {
			failure = &CLIError{Code: firstCode(results), Message: "validation failed"}
		}
		if err := formatter.Respond(result, failure); err != nil {
			return err
		}
	} else {
		outputValidateText(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(opts *RootOptions, path string) FileResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return validateScenarioFile(path)
	default:
		return validateSequenceFile(opts, path)
	}
}

// validateSequenceFile loads path into a private world, so concurrent
// checks share nothing.
func validateSequenceFile(opts *RootOptions, path string) FileResult {
	res := FileResult{Path: path, Kind: "sequence"}
	sess := newSession(playback.NewRunID(), opts.logger())
	seqs, err := sess.loadFiles([]string{path})
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			res.Code = le.Code
		}
		res.Error = err.Error()
		return res
	}
	stats := sequenceStats(seqs[0])
	res.Valid = true
	res.Name = seqs[0].Name()
	res.Nodes, res.Tracks, res.Keys = stats.nodes, stats.tracks, stats.keys
	return res
}

func validateScenarioFile(path string) FileResult {
	res := FileResult{Path: path, Kind: "scenario"}
	sc, err := harness.LoadScenario(path)
	if err != nil {
		res.Code = ErrCodeSchema
		if errors.Is(err, fs.ErrNotExist) {
			res.Code = ErrCodeNotFound
		}
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	res.Name = sc.Name
	return res
}

type docStats struct{ nodes, tracks, keys int }

func sequenceStats(seq *sequence.Sequence) docStats {
	var s docStats
	for _, n := range seq.Nodes() {
		s.nodes++
		for _, t := range n.Params().Tracks() {
			s.tracks++
			s.keys += t.NumKeys()
		}
	}
	return s
}

func firstCode(results []FileResult) string {
	for _, r := range results {
		if !r.Valid && r.Code != "" {
			return r.Code
		}
	}
	return ErrCodeGeneric
}

func outputValidateText(cmd *cobra.Command, result ValidationResult) {
	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range result.Files {
		if !r.Valid {
			failed++
			fmt.Fprintf(w, "✗ %s\n  %s\n", r.Path, r.Error)
			continue
		}
		if r.Kind == "scenario" {
			fmt.Fprintf(w, "✓ %s (scenario %s)\n", r.Path, r.Name)
			continue
		}
		fmt.Fprintf(w, "✓ %s (%s: %d nodes, %d tracks, %d keys)\n", r.Path, r.Name, r.Nodes, r.Tracks, r.Keys)
	}
	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintf(w, "✓ %d file(s) valid\n", len(result.Files))
		return
	}
	fmt.Fprintf(w, "✗ %d of %d file(s) invalid\n", failed, len(result.Files))
}
