package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewValidateCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateValidFiles(t *testing.T) {
	out, err := execute(t, NewValidateCommand(textOpts()), introXML, shotsXML, "testdata/scenarios/intro_cut.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ testdata/intro.xml (Intro: 2 nodes, 4 tracks, 6 keys)")
	assert.Contains(t, out, "✓ testdata/shots.xml (Shots: 1 nodes, 1 tracks, 1 keys)")
	assert.Contains(t, out, "✓ testdata/scenarios/intro_cut.yaml (scenario intro_cut)")
	assert.Contains(t, out, "✓ 3 file(s) valid")
}

func TestValidateReportsInArgumentOrder(t *testing.T) {
	args := []string{badXML, introXML, "testdata/missing.xml", shotsXML}
	out, err := execute(t, NewValidateCommand(jsonOpts()), args...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[ValidationResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, len(args))
	for i, f := range resp.Data.Files {
		assert.Equal(t, args[i], f.Path)
	}

	assert.False(t, resp.Data.Files[0].Valid)
	assert.Equal(t, ErrCodeParse, resp.Data.Files[0].Code)
	assert.Contains(t, resp.Data.Files[0].Error, "UNKNOWN_NODE_TYPE")

	assert.True(t, resp.Data.Files[1].Valid)
	assert.Equal(t, "Intro", resp.Data.Files[1].Name)

	assert.Equal(t, ErrCodeNotFound, resp.Data.Files[2].Code)
	assert.True(t, resp.Data.Files[3].Valid)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code, "first failing file decides the code")
}

func TestValidateScenarioSchemaError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: broken
description: fps is a string
sequences: [intro.xml]
play: Intro
fps: fast
steps:
  - action: play
assertions:
  - type: final_time
    time: 0
`), 0o644))

	out, err := execute(t, NewValidateCommand(jsonOpts()), path)
	require.Error(t, err)

	resp := decode[ValidationResult](t, out)
	require.Len(t, resp.Data.Files, 1)
	assert.Equal(t, "scenario", resp.Data.Files[0].Kind)
	assert.Equal(t, ErrCodeSchema, resp.Data.Files[0].Code)
	assert.Contains(t, resp.Data.Files[0].Error, "schema")
}

func TestValidateText(t *testing.T) {
	out, err := execute(t, NewValidateCommand(textOpts()), badXML, introXML)
	require.Error(t, err)

	assert.Contains(t, out, "✗ testdata/bad.xml")
	assert.Contains(t, out, "✗ 1 of 2 file(s) invalid")
}
