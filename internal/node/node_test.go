package node

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/movie"
	"github.com/roach88/trackview/internal/track"
)

func TestCreateTrackRepeatableKindsGetSubIndices(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)

	s0, err := n.CreateTrack(ir.ParamSound)
	require.NoError(t, err)
	s1, err := n.CreateTrack(ir.ParamSound)
	require.NoError(t, err)

	assert.Equal(t, ir.ParamType{Kind: ir.ParamSound}, s0.ParamType())
	assert.Equal(t, ir.ParamType{Kind: ir.ParamSound, Index: 1}, s1.ParamType())
	assert.Len(t, n.TracksOfKind(ir.ParamSound), 2)
	assert.IsType(t, &track.SoundTrack{}, s1)
}

func TestCreateTrackRejectsDuplicatesAndUnknownParams(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)

	_, err := n.CreateTrack(ir.ParamCamera)
	require.NoError(t, err)
	_, err = n.CreateTrack(ir.ParamCamera)
	assert.True(t, IsDuplicateTrack(err), "got %v", err)

	_, err = n.CreateTrack(ir.ParamFOV)
	assert.True(t, IsInvalidParam(err), "got %v", err)
}

func TestAddTrackChecksValueType(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)
	wrong := track.NewKeyed[track.FloatKey](ir.Param(ir.ParamEvent), ir.ValueFloat)
	assert.True(t, IsInvalidParam(n.AddTrack(wrong)))
}

func TestRemoveTrack(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)
	ev, err := n.CreateTrack(ir.ParamEvent)
	require.NoError(t, err)

	assert.True(t, n.RemoveTrack(ev))
	assert.False(t, n.RemoveTrack(ev))
	assert.Nil(t, n.Track(ir.Param(ir.ParamEvent)))
}

func TestAnimateSkipsDisabledAndMaskedTracks(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)
	_, _ = n.CreateTrack(ir.ParamEvent)
	_, _ = n.CreateTrack(ir.ParamSound)
	_, _ = n.CreateTrack(ir.ParamMusic)
	console, _ := n.CreateTrack(ir.ParamConsole)
	console.SetFlags(ir.TrackDisabled)

	var visited []ir.ParamKind
	n.Animate(movie.AnimContext{TrackMask: ir.MaskSound}, func(tr track.Track) {
		visited = append(visited, tr.ParamType().Kind)
	})
	assert.Equal(t, []ir.ParamKind{ir.ParamEvent, ir.ParamMusic}, visited)

	visited = nil
	n.Animate(movie.AnimContext{TrackMask: ir.MaskMusic}, func(tr track.Track) {
		visited = append(visited, tr.ParamType().Kind)
	})
	assert.Equal(t, []ir.ParamKind{ir.ParamEvent, ir.ParamSound}, visited)
}

func TestDynamicParams(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)
	_, _ = n.CreateTrack(ir.ParamCamera)
	_, _ = n.CreateTrack(ir.ParamSound)

	assert.Empty(t, n.DynamicParams())
	n.UpdateDynamicParams()

	var kinds []ir.ParamKind
	for _, p := range n.DynamicParams() {
		kinds = append(kinds, p.Kind)
	}
	assert.NotContains(t, kinds, ir.ParamCamera)
	assert.Contains(t, kinds, ir.ParamSound)
	assert.Contains(t, kinds, ir.ParamEvent)
}

func TestCreateDefaultTracks(t *testing.T) {
	n := NewParamNode(2, "CamA", NewTables().Camera)
	require.NoError(t, n.CreateDefaultTracks())
	assert.NotNil(t, n.Track(ir.Param(ir.ParamPosition)))
	assert.NotNil(t, n.Track(ir.Param(ir.ParamRotation)))
	assert.NotNil(t, n.Track(ir.Param(ir.ParamFOV)))
	assert.Nil(t, n.Track(ir.Param(ir.ParamNearZ)))
}

func TestNodeXMLRoundTrip(t *testing.T) {
	tables := NewTables()
	n := NewParamNode(7, "Director", tables.Director)
	n.SetParentID(3)
	n.SetFlags(ir.NodeExpanded)

	cam, _ := n.CreateTrack(ir.ParamCamera)
	sel := cam.(*track.SelectTrack)
	i := sel.CreateKey(0)
	sel.SetKey(i, track.SelectKey{KeyBase: track.KeyBase{Time: 0}, Selection: "CamA", BlendTime: 2})
	_, _ = n.CreateTrack(ir.ParamSound)
	snd, _ := n.CreateTrack(ir.ParamSound)
	snd.CreateKey(1.5)
	_, _ = n.CreateTrack(ir.ParamEvent) // empty, dropped on load

	doc := etree.NewDocument()
	n.Save(doc.CreateElement("Node"))
	text, err := doc.WriteToString()
	require.NoError(t, err)

	in := etree.NewDocument()
	require.NoError(t, in.ReadFromString(text))
	loaded := NewParamNode(0, "", tables.Director)
	require.NoError(t, loaded.Load(in.Root(), false))

	assert.Equal(t, 7, loaded.ID())
	assert.Equal(t, "Director", loaded.Name())
	assert.Equal(t, 3, loaded.ParentID())
	assert.Equal(t, ir.NodeExpanded, loaded.Flags())
	require.Equal(t, 2, loaded.NumTracks())

	got := loaded.Track(ir.Param(ir.ParamCamera)).(*track.SelectTrack)
	assert.Equal(t, "CamA", got.Key(0).Selection)
	assert.Equal(t, float32(2), got.Key(0).BlendTime)

	s := loaded.Track(ir.ParamType{Kind: ir.ParamSound, Index: 1})
	require.NotNil(t, s)
	assert.Equal(t, float32(1.5), s.KeyTime(0))
}

func TestNodeLoadRejectsForeignParams(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(
		`<Node Id="1" Name="Director" Type="Director"><Track ParamType="FOV"><Key time="0" value="1"/></Track></Node>`))

	n := NewParamNode(0, "", NewTables().Director)
	err := n.Load(doc.Root(), false)
	assert.True(t, IsInvalidParam(err), "got %v", err)
}

func TestNodeLoadFailureKeepsNode(t *testing.T) {
	n := NewParamNode(1, "Director", NewTables().Director)
	n.SetParentID(3)
	console, err := n.CreateTrack(ir.ParamConsole)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(
		`<Node Id="7" Name="Other" Type="Director" Flags="8">`+
			`<Track ParamType="Console" ValueType="Console"><Key time="0" command="a"/></Track>`+
			`<Track ParamType="Event" ValueType="Event"><Key time="bad"/></Track>`+
			`</Node>`))
	require.Error(t, n.Load(doc.Root(), false))

	assert.Equal(t, 1, n.ID())
	assert.Equal(t, "Director", n.Name())
	assert.Equal(t, 3, n.ParentID())
	assert.False(t, n.Disabled())
	require.Equal(t, 1, n.NumTracks())
	assert.Same(t, console, n.TrackAt(0))
}

func TestNodeLoadRejectsWrongType(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<Node Id="1" Name="CamA" Type="Camera"/>`))

	n := NewParamNode(0, "", NewTables().Director)
	assert.Error(t, n.Load(doc.Root(), false))
}

type fakeCamera struct{ fov, nearZ float32 }

func (c *fakeCamera) FOV() float32 { return c.fov }
func (c *fakeCamera) NearZ() float32 { return c.nearZ }
func (c *fakeCamera) SetFOV(v float32) { c.fov = v }
func (c *fakeCamera) SetNearZ(v float32) { c.nearZ = v }

type fakeEntity struct {
	name string
	pos  mgl32.Vec3
	rot  mgl32.Quat
	cam  *fakeCamera
}

func (e *fakeEntity) ID() ir.EntityID { return 1 }
func (e *fakeEntity) Name() string { return e.name }
func (e *fakeEntity) Parent() movie.Entity { return nil }
func (e *fakeEntity) Position() mgl32.Vec3 { return e.pos }
func (e *fakeEntity) SetPosition(p mgl32.Vec3) { e.pos = p }
func (e *fakeEntity) Rotation() mgl32.Quat { return e.rot }
func (e *fakeEntity) SetRotation(q mgl32.Quat) { e.rot = q }
func (e *fakeEntity) Camera() (movie.Camera, bool) { return e.cam, true }

type fakeEntities map[string]*fakeEntity

func (f fakeEntities) FindByName(name string) movie.Entity {
	if e, ok := f[name]; ok {
		return e
	}
	return nil
}

func (f fakeEntities) FindByID(ir.EntityID) movie.Entity { return nil }

func TestCameraNodeAnimate(t *testing.T) {
	ent := &fakeEntity{name: "CamA", rot: mgl32.QuatIdent(), cam: &fakeCamera{fov: 60}}
	c := NewCameraNode(2, "CamA", NewTables().Camera, fakeEntities{"CamA": ent})
	require.NoError(t, c.CreateDefaultTracks())

	track.SetVec3(c.PositionTrack(), 0, mgl32.Vec3{0, 0, 0})
	track.SetVec3(c.PositionTrack(), 2, mgl32.Vec3{2, 0, 0})
	require.True(t, c.SetParamFloat(ir.ParamFOV, 0, 45))
	assert.False(t, c.SetParamFloat(ir.ParamNearZ, 0, 0.1))

	c.Animate(movie.AnimContext{Time: 1})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, ent.pos)
	assert.Equal(t, float32(45), ent.cam.fov)

	// Held: the interpolation transform wins over the track.
	c.SetSkipInterpolation(true)
	c.SetInterpolationPosition(mgl32.Vec3{9, 9, 9})
	c.Animate(movie.AnimContext{Time: 1.5})
	assert.Equal(t, mgl32.Vec3{9, 9, 9}, ent.pos)

	c.Reset()
	assert.False(t, c.SkipInterpolation())
	c.Animate(movie.AnimContext{Time: 1.5})
	assert.Equal(t, mgl32.Vec3{1.5, 0, 0}, ent.pos)
}

func TestCameraNodeWithoutEntityIsNoop(t *testing.T) {
	c := NewCameraNode(2, "Missing", NewTables().Camera, fakeEntities{})
	require.NoError(t, c.CreateDefaultTracks())
	assert.NotPanics(t, func() { c.Animate(movie.AnimContext{Time: 1}) })
}
