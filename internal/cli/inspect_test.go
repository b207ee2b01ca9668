package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectJSON(t *testing.T) {
	out, err := execute(t, NewInspectCommand(jsonOpts()), introXML)
	require.NoError(t, err)

	resp := decode[InspectResult](t, out)
	r := resp.Data
	assert.Equal(t, "Intro", r.Sequence)
	assert.Equal(t, float32(0), r.Start)
	assert.Equal(t, float32(1), r.End)
	assert.Len(t, r.Hash, 64)
	require.Len(t, r.Nodes, 2)

	director := r.Nodes[0]
	assert.Equal(t, "Director", director.Name)
	assert.Equal(t, "Director", director.Kind)
	require.Len(t, director.Tracks, 3)
	assert.Equal(t, TrackInfo{Param: "Camera", ValueType: "Select", Keys: 2, End: 1}, director.Tracks[0])

	cam := r.Nodes[1]
	assert.Equal(t, "CamA", cam.Name)
	assert.Equal(t, 1, cam.ParentID)
	require.Len(t, cam.Tracks, 1)
	assert.Equal(t, "FOV", cam.Tracks[0].Param)
	assert.Equal(t, 2, cam.Tracks[0].Keys)
}

func TestInspectText(t *testing.T) {
	out, err := execute(t, NewInspectCommand(textOpts()), introXML)
	require.NoError(t, err)

	assert.Contains(t, out, "Sequence: Intro")
	assert.Contains(t, out, "Range: 0 - 1")
	assert.Contains(t, out, "[1] Director (Director)")
	assert.Contains(t, out, "[2] CamA (Camera) parent=1")
	assert.Regexp(t, `Event\s+Event\s+1 key\(s\)`, out)
}

func TestInspectHashIsStable(t *testing.T) {
	first, err := execute(t, NewInspectCommand(jsonOpts()), introXML)
	require.NoError(t, err)
	second, err := execute(t, NewInspectCommand(jsonOpts()), introXML)
	require.NoError(t, err)
	assert.Equal(t, decode[InspectResult](t, first).Data.Hash, decode[InspectResult](t, second).Data.Hash)
}

func TestInspectBadDocument(t *testing.T) {
	_, err := execute(t, NewInspectCommand(textOpts()), badXML)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
