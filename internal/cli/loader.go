package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trackview/internal/config"
	"github.com/roach88/trackview/internal/harness"
	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/sequence"
)

// LoadError reports an input file that could not be used.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// loadErrorCode classifies a sequence loading failure.
func loadErrorCode(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case sequence.IsDuplicateSequence(err):
		return ErrCodeDuplicate
	default:
		return ErrCodeParse
	}
}

// playSettings are the playback parameters shared by play, record and
// replay. Unset flags fall back to the playback section of the config.
type playSettings struct {
	Sequence  string
	World     string
	FPS       float32
	FixedStep float32
	From      float32
	Frames    int
	Loop      bool
	TrackMask uint32
	Editor    bool
	Batch     bool
}

func (p *playSettings) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&p.Sequence, "sequence", "s", "", "sequence to play (default: first loaded)")
	f.StringVar(&p.World, "world", "", "YAML file listing world entities")
	f.Float32Var(&p.FPS, "fps", 0, "frame rate")
	f.Float32Var(&p.FixedStep, "fixed-step", 0, "fixed time step in seconds, replaces the frame step")
	f.Float32Var(&p.From, "from", 0, "start time in seconds")
	f.IntVar(&p.Frames, "frames", 0, "maximum frames to evaluate (0 = until the end)")
	f.BoolVar(&p.Loop, "loop", false, "wrap at the end of the range")
	f.Uint32Var(&p.TrackMask, "track-mask", 0, "suppress track kinds (2048 = sound, 4096 = music)")
	f.BoolVar(&p.Editor, "editor", false, "play as the editor")
	f.BoolVar(&p.Batch, "batch", false, "batch render mode (capture keys are ignored)")
}

// applyDefaults fills flags the user did not set from cfg.
func (p *playSettings) applyDefaults(cmd *cobra.Command, cfg config.PlaybackConfig) {
	f := cmd.Flags()
	if !f.Changed("fps") {
		p.FPS = cfg.FPS
	}
	if !f.Changed("fixed-step") {
		p.FixedStep = cfg.FixedStep
	}
	if !f.Changed("loop") {
		p.Loop = cfg.Loop
	}
	if !f.Changed("track-mask") {
		p.TrackMask = cfg.TrackMask
	}
	if !f.Changed("editor") {
		p.Editor = cfg.Editor
	}
	if !f.Changed("batch") {
		p.Batch = cfg.Batch
	}
}

func (p *playSettings) validate() error {
	if p.FPS < 0 {
		return fmt.Errorf("fps must not be negative")
	}
	if p.FixedStep < 0 {
		return fmt.Errorf("fixed-step must not be negative")
	}
	if p.Frames < 0 {
		return fmt.Errorf("frames must not be negative")
	}
	if p.Loop && p.Frames == 0 {
		return fmt.Errorf("looping playback needs --frames")
	}
	return nil
}

// Run meta keys. Together with the stored documents they are enough to
// replay a run.
const (
	metaFPS       = "fps"
	metaFixedStep = "fixed_step"
	metaFrom      = "from"
	metaFrames    = "frames"
	metaLoop      = "loop"
	metaTrackMask = "track_mask"
	metaEditor    = "editor"
	metaBatch     = "batch"
	metaWorld     = "world"
	metaLibrary   = "library"
)

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// meta encodes p, the world and the hashes of every loaded document.
func (p *playSettings) meta(entities []harness.EntitySpec, library []string) (map[string]string, error) {
	m := map[string]string{
		metaFPS:       formatFloat(p.FPS),
		metaFixedStep: formatFloat(p.FixedStep),
		metaFrom:      formatFloat(p.From),
		metaFrames:    strconv.Itoa(p.Frames),
		metaLoop:      strconv.FormatBool(p.Loop),
		metaTrackMask: strconv.FormatUint(uint64(p.TrackMask), 10),
		metaEditor:    strconv.FormatBool(p.Editor),
		metaBatch:     strconv.FormatBool(p.Batch),
		metaLibrary:   strings.Join(library, ","),
	}
	if len(entities) > 0 {
		data, err := yaml.Marshal(harness.WorldSpec{Entities: entities})
		if err != nil {
			return nil, fmt.Errorf("failed to encode world: %w", err)
		}
		m[metaWorld] = string(data)
	}
	return m, nil
}

// settingsFromMeta reverses meta.
func settingsFromMeta(sequenceName string, m map[string]string) (playSettings, []harness.EntitySpec, []string, error) {
	p := playSettings{Sequence: sequenceName}
	var err error
	parseFloat := func(key string) float32 {
		if err != nil || m[key] == "" {
			return 0
		}
		var v float64
		v, err = strconv.ParseFloat(m[key], 32)
		if err != nil {
			err = fmt.Errorf("meta %s: %w", key, err)
		}
		return float32(v)
	}
	parseBool := func(key string) bool {
		if err != nil || m[key] == "" {
			return false
		}
		var v bool
		v, err = strconv.ParseBool(m[key])
		if err != nil {
			err = fmt.Errorf("meta %s: %w", key, err)
		}
		return v
	}

	p.FPS = parseFloat(metaFPS)
	p.FixedStep = parseFloat(metaFixedStep)
	p.From = parseFloat(metaFrom)
	p.Loop = parseBool(metaLoop)
	p.Editor = parseBool(metaEditor)
	p.Batch = parseBool(metaBatch)
	if err != nil {
		return p, nil, nil, err
	}
	if s := m[metaFrames]; s != "" {
		if p.Frames, err = strconv.Atoi(s); err != nil {
			return p, nil, nil, fmt.Errorf("meta %s: %w", metaFrames, err)
		}
	}
	if s := m[metaTrackMask]; s != "" {
		mask, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return p, nil, nil, fmt.Errorf("meta %s: %w", metaTrackMask, err)
		}
		p.TrackMask = uint32(mask)
	}

	var world harness.WorldSpec
	if s := m[metaWorld]; s != "" {
		if err := yaml.Unmarshal([]byte(s), &world); err != nil {
			return p, nil, nil, fmt.Errorf("meta %s: %w", metaWorld, err)
		}
	}
	var library []string
	if s := m[metaLibrary]; s != "" {
		library = strings.Split(s, ",")
	}
	return p, world.Entities, library, nil
}

// session is one world with the library of sequences loaded into it.
type session struct {
	world   *playback.World
	library *sequence.Library
	factory *sequence.Factory
	log     *zap.Logger
}

func newSession(runID string, log *zap.Logger) *session {
	s := &session{library: sequence.NewLibrary(), log: log}
	s.world = playback.NewWorld(playback.NewRecorder(runID),
		playback.WithFinder(s.library),
		playback.WithLogger(log.Named("world")))
	s.factory = sequence.NewFactory(node.NewTables(), s.world.Services(), log)
	return s
}

// loadWorld reads the world file named by p, if any, into the session.
func (s *session) loadWorld(p *playSettings) ([]harness.EntitySpec, error) {
	if p.World == "" {
		return nil, nil
	}
	specs, err := harness.LoadWorld(p.World)
	if err != nil {
		code := ErrCodeWorld
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Code: code, Path: p.World, Message: "invalid world", Err: err}
	}
	if err := harness.BuildEntities(s.world, specs); err != nil {
		return nil, &LoadError{Code: ErrCodeWorld, Path: p.World, Message: "invalid world", Err: err}
	}
	return specs, nil
}

// loadFiles parses every document into the library, in order.
func (s *session) loadFiles(paths []string) ([]*sequence.Sequence, error) {
	seqs := make([]*sequence.Sequence, 0, len(paths))
	for _, path := range paths {
		seq, err := s.library.LoadFile(path, s.factory, sequence.WithLogger(s.log))
		if err != nil {
			return nil, &LoadError{Code: loadErrorCode(err), Path: path, Message: "failed to load sequence", Err: err}
		}
		s.log.Debug("loaded sequence", zap.String("path", path), zap.String("sequence", seq.Name()))
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

// loadDocument parses one stored document into the library.
func (s *session) loadDocument(name string, xml []byte) (*sequence.Sequence, error) {
	seq, err := sequence.Parse(xml, s.factory, sequence.WithLogger(s.log))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Path: name, Message: "failed to load stored sequence", Err: err}
	}
	if err := s.library.Add(seq); err != nil {
		return nil, &LoadError{Code: ErrCodeDuplicate, Path: name, Message: "failed to load stored sequence", Err: err}
	}
	return seq, nil
}

// pick returns the sequence to play: the named one, or the first loaded.
func (s *session) pick(seqs []*sequence.Sequence, name string) (*sequence.Sequence, error) {
	if name == "" {
		if len(seqs) == 0 {
			return nil, &LoadError{Code: ErrCodeNoSequence, Message: "no sequence loaded"}
		}
		return seqs[0], nil
	}
	seq := s.library.Get(name)
	if seq == nil {
		return nil, &LoadError{Code: ErrCodeNoSequence, Message: fmt.Sprintf("sequence %q not loaded (have %v)", name, s.library.Names())}
	}
	return seq, nil
}

// playOutcome is the result of one playback.
type playOutcome struct {
	Sequence  string      `json:"sequence"`
	RunID     string      `json:"run_id"`
	Frames    int         `json:"frames"`
	FinalTime float32     `json:"final_time"`
	TraceHash string      `json:"trace_hash"`
	Effects   []ir.Effect `json:"effects"`
}

// play drives seq from p.From until it stops or p.Frames frames ran.
func (s *session) play(ctx context.Context, seq *sequence.Sequence, p playSettings) (*playOutcome, error) {
	if seq.Flags()&ir.SeqOutOfRangeLoop != 0 && p.Frames == 0 {
		return nil, fmt.Errorf("sequence %s loops at its end: playback needs --frames", seq.Name())
	}
	s.world.SetEditor(p.Editor, false)
	s.world.SetBatchRender(p.Batch)
	if p.FixedStep > 0 {
		s.world.SetFixedStep(p.FixedStep)
	}

	opts := []playback.PlayerOption{
		playback.WithLoop(p.Loop),
		playback.WithTrackMask(ir.TrackMask(p.TrackMask)),
		playback.WithPlayerLogger(s.log.Named("player")),
	}
	if p.FPS > 0 {
		opts = append(opts, playback.WithFPS(p.FPS))
	}
	player := playback.NewPlayer(seq, s.world, opts...)
	player.Play(p.From)
	if _, err := player.Run(ctx, p.Frames); err != nil {
		return nil, err
	}
	player.Stop()

	rec := s.world.Recorder()
	hash, err := rec.Hash()
	if err != nil {
		return nil, err
	}
	s.log.Debug("played sequence",
		zap.String("sequence", seq.Name()),
		zap.Int("frames", player.Frames()),
		zap.Int("effects", rec.Len()))
	return &playOutcome{
		Sequence:  seq.Name(),
		RunID:     rec.RunID(),
		Frames:    player.Frames(),
		FinalTime: player.Time(),
		TraceHash: hash,
		Effects:   rec.Effects(),
	}, nil
}
