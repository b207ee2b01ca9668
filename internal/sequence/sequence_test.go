package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/director"
	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/track"
)

func newFactory(t *testing.T) (*Factory, *playback.World) {
	t.Helper()
	w := playback.NewWorld(playback.NewRecorder("test-run"))
	return NewFactory(node.NewTables(), w.Services(), nil), w
}

func TestFactoryKinds(t *testing.T) {
	f, _ := newFactory(t)
	assert.Equal(t, []ir.NodeKind{ir.NodeCamera, ir.NodeDirector}, f.Kinds())

	n, err := f.New(ir.NodeDirector, 4, "Dir")
	require.NoError(t, err)
	assert.IsType(t, &director.Node{}, n)
	assert.Equal(t, 4, n.ID())

	_, err = f.New("Light", 5, "Sun")
	assert.True(t, IsUnknownNodeType(err))
}

func TestNewSequenceDefaults(t *testing.T) {
	s := New("Main")
	assert.Equal(t, "Main", s.Name())
	assert.Equal(t, ir.Range{Start: 0, End: 10}, s.TimeRange())
	assert.Zero(t, s.NumNodes())
	assert.Equal(t, 1, s.NextID())

	s.SetFixedTimeStep(-1)
	assert.Zero(t, s.FixedTimeStep(), "negative steps clamp to 0")
}

func TestCreateNodeAssignsIDsAndDefaults(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")

	d, err := s.CreateNode(f, ir.NodeDirector, "Director")
	require.NoError(t, err)
	c, err := s.CreateNode(f, ir.NodeCamera, "Cam")
	require.NoError(t, err)

	assert.Equal(t, 1, d.ID())
	assert.Equal(t, 2, c.ID())
	assert.NotNil(t, d.Params().Track(ir.Param(ir.ParamCamera)), "default select track")
	assert.Equal(t, 3, c.Params().NumTracks(), "position, rotation and FOV")
	assert.Len(t, s.Directors(), 1)
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")
	a, _ := f.New(ir.NodeCamera, 1, "A")
	b, _ := f.New(ir.NodeCamera, 1, "B")
	require.NoError(t, s.AddNode(a))
	err := s.AddNode(b)
	assert.True(t, IsDuplicateNode(err))
	assert.Contains(t, err.Error(), "sequence=Main")
}

func TestRemoveNodeOrphansChildren(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")
	d, _ := s.CreateNode(f, ir.NodeDirector, "Director")
	c, _ := s.CreateNode(f, ir.NodeCamera, "Cam")
	c.Params().SetParentID(d.ID())

	assert.Same(t, d, s.Parent(c))
	assert.Equal(t, []node.Node{c}, s.Children(d.ID()))

	assert.True(t, s.RemoveNode(d.ID()))
	assert.False(t, s.RemoveNode(d.ID()))
	assert.Nil(t, s.Node(d.ID()))
	assert.Zero(t, c.Params().ParentID())
	assert.Nil(t, s.Parent(c))
	assert.Equal(t, 1, s.NumNodes())
}

func TestFindNodeByNamePrefersChildren(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")
	outer, _ := f.New(ir.NodeCamera, 1, "Cam")
	d1, _ := f.New(ir.NodeDirector, 2, "Shot1")
	inner, _ := f.New(ir.NodeCamera, 3, "Cam")
	inner.Params().SetParentID(2)
	for _, n := range []node.Node{outer, d1, inner} {
		require.NoError(t, s.AddNode(n))
	}

	assert.Same(t, inner, s.FindNodeByName("Cam", 2))
	assert.Same(t, outer, s.FindNodeByName("Cam", 0))
	assert.Same(t, outer, s.FindNodeByName("Cam", 9), "falls back to a global match")
	assert.Nil(t, s.FindNodeByName("Nobody", 0))
}

func TestFindNodeByNameNormalizes(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")
	n, _ := f.New(ir.NodeCamera, 1, "Came\u0301ra")
	require.NoError(t, s.AddNode(n))
	assert.Same(t, n, s.FindNodeByName("Cam\u00e9ra", 0))
}

func TestAnimateSetsSequenceAndSkipsDisabled(t *testing.T) {
	f, w := newFactory(t)
	e := playback.NewEntity(7, "Cam")
	require.NoError(t, w.AddEntity(e))

	s := New("Main")
	c, err := s.CreateNode(f, ir.NodeCamera, "Cam")
	require.NoError(t, err)
	pos := c.Params().Track(ir.Param(ir.ParamPosition)).(*track.Vec3Track)
	track.SetVec3(pos, 0, mgl32.Vec3{1, 2, 3})

	s.Animate(movie.AnimContext{Time: 0.5})
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e.Position())
	assert.Equal(t, float32(0.5), s.Time())

	e.SetPosition(mgl32.Vec3{})
	c.Params().SetFlags(ir.NodeDisabled)
	s.Animate(movie.AnimContext{Time: 1})
	assert.Equal(t, mgl32.Vec3{}, e.Position())
}

func TestResetActivateStop(t *testing.T) {
	f, w := newFactory(t)
	s := New("Main")
	s.SetTimeRange(ir.Range{Start: 1, End: 4})
	d, err := s.CreateNode(f, ir.NodeDirector, "Director")
	require.NoError(t, err)
	snd, err := d.Params().CreateTrack(ir.ParamSound)
	require.NoError(t, err)
	snd.(*track.SoundTrack).SetKeyAtTime(1, track.SoundKey{StartTrigger: "amb", Length: 2})

	s.Activate(true)
	assert.True(t, s.Active())
	s.Animate(movie.AnimContext{Time: 1.5})
	s.Stop()

	var got []string
	for _, e := range w.Recorder().Effects() {
		got = append(got, string(e.Kind)+":"+e.Target)
	}
	assert.Equal(t, []string{"sound_start:amb", "sound_stop:amb"}, got)

	s.Reset()
	assert.Equal(t, float32(1), s.Time())
	s.Activate(false)
	assert.False(t, s.Active())
}

func TestParseFixture(t *testing.T) {
	f, _ := newFactory(t)
	data, err := os.ReadFile("testdata/cutscene.xml")
	require.NoError(t, err)

	s, err := Parse(data, f)
	require.NoError(t, err)
	assert.Equal(t, "Cutscene", s.Name())
	assert.Equal(t, ir.SeqCanWarpInFixedTime, s.Flags())
	assert.Equal(t, ir.Range{Start: 0, End: 8}, s.TimeRange())
	assert.Equal(t, float32(0.04), s.FixedTimeStep())
	require.Equal(t, 3, s.NumNodes())

	d := s.Directors()[0]
	assert.Len(t, d.TracksOfKind(ir.ParamSound), 2)
	assert.Nil(t, d.Track(ir.Param(ir.ParamConsole)), "tracks without keys are dropped")
	sel := d.Track(ir.Param(ir.ParamCamera)).(*track.SelectTrack)
	assert.Equal(t, float32(2), sel.Key(0).BlendTime)

	camA, ok := s.FindNodeByName("CamA", d.ID()).(*node.CameraNode)
	require.True(t, ok)
	fov, ok := camA.ParamFloat(ir.ParamFOV, 0)
	require.True(t, ok)
	assert.Equal(t, float32(50), fov)
	assert.Same(t, d, s.Parent(camA))
}

func TestMarshalRoundTrip(t *testing.T) {
	f, _ := newFactory(t)
	data, err := os.ReadFile("testdata/cutscene.xml")
	require.NoError(t, err)
	s, err := Parse(data, f)
	require.NoError(t, err)

	out, err := Marshal(s)
	require.NoError(t, err)
	again, err := Parse(out, f)
	require.NoError(t, err)
	out2, err := Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(out2))

	h1, err := Hash(s)
	require.NoError(t, err)
	h2, err := Hash(again)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	again.SetFlags(0)
	h3, err := Hash(again)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestParseErrors(t *testing.T) {
	f, _ := newFactory(t)
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"invalid xml", `<Sequence`, IsBadDocument},
		{"empty", ``, IsBadDocument},
		{"wrong root", `<Timeline/>`, IsBadDocument},
		{"bad flags", `<Sequence Flags="x"/>`, IsBadDocument},
		{"bad end time", `<Sequence EndTime="soon"/>`, IsBadDocument},
		{"unknown node type", `<Sequence><Nodes><Node Id="1" Type="Light"/></Nodes></Sequence>`, IsUnknownNodeType},
		{"duplicate ids", `<Sequence><Nodes><Node Id="1" Type="Camera"/><Node Id="1" Type="Camera"/></Nodes></Sequence>`, IsDuplicateNode},
		{"bad track", `<Sequence><Nodes><Node Id="1" Type="Camera"><Track ParamType="Event" ValueType="Event"><Key time="0"/></Track></Node></Nodes></Sequence>`, node.IsInvalidParam},
		{"bad key", `<Sequence><Nodes><Node Id="1" Type="Camera"><Track ParamType="FOV" ValueType="Float"><Key time="x"/></Track></Node></Nodes></Sequence>`, track.IsFormatError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), f)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestLoadFailureKeepsSequence(t *testing.T) {
	f, _ := newFactory(t)
	s := New("Main")
	s.SetTimeRange(ir.Range{Start: 0, End: 5})
	cam, err := s.CreateNode(f, ir.NodeCamera, "CamA")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<Sequence Name="Other" Flags="4" EndTime="9"><Nodes>`+
		`<Node Id="1" Type="Camera" Name="CamB"/>`+
		`<Node Id="2" Type="Light" Name="Sun"/>`+
		`</Nodes></Sequence>`))
	require.Error(t, s.Load(doc.Root(), f))

	assert.Equal(t, "Main", s.Name())
	assert.Zero(t, s.Flags())
	assert.Equal(t, ir.Range{Start: 0, End: 5}, s.TimeRange())
	require.Equal(t, 1, s.NumNodes())
	assert.Same(t, cam, s.Node(cam.ID()))
	assert.Nil(t, s.FindNodeByName("CamB", 0))
}

func TestLibrary(t *testing.T) {
	f, _ := newFactory(t)
	lib := NewLibrary()
	require.NoError(t, lib.Add(New("Outro")))
	require.NoError(t, lib.Add(New("Intro")))
	assert.True(t, IsDuplicateSequence(lib.Add(New("Intro"))))

	assert.Equal(t, []string{"Intro", "Outro"}, lib.Names())
	assert.Equal(t, "Outro", lib.Sequences()[0].Name(), "insertion order")
	assert.NotNil(t, lib.FindSequence("Intro"))
	assert.Nil(t, lib.FindSequence("Missing"))

	dir := t.TempDir()
	data, err := os.ReadFile("testdata/cutscene.xml")
	require.NoError(t, err)
	path := filepath.Join(dir, "cutscene.xml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := lib.LoadFile(path, f)
	require.NoError(t, err)
	assert.Same(t, s, lib.Get("Cutscene"))

	_, err = lib.LoadFile(path, f)
	assert.True(t, IsDuplicateSequence(err))
	_, err = lib.LoadFile(filepath.Join(dir, "missing.xml"), f)
	assert.Error(t, err)
}
