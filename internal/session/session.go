// Package session builds a review session out of a trial configuration and
// drives it: it constructs every modality, extracts the combined camera
// timeline, and exposes the scrub state, offset mutations and per-modality
// index queries the rendering layer consumes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emedialab/sioviz/internal/component"
	"github.com/emedialab/sioviz/internal/config"
	"github.com/emedialab/sioviz/internal/domain/timeline"
	"github.com/emedialab/sioviz/internal/ports"
	"github.com/emedialab/sioviz/internal/ports/adapters/arraystore"
	"github.com/emedialab/sioviz/internal/types"
)

// Deps are the collaborators a session is built from. OpenStore defaults to
// the JSON array store; Logf defaults to silent.
type Deps struct {
	Video     ports.VideoTool
	OpenStore func(path string) (ports.SensorStore, error)
	Logf      component.Logf
}

// Session is the runtime state of one loaded trial. The combined timeline
// and every component's series are immutable after New; only the current
// tick, offsets and annotations mutate, guarded by mu.
type Session struct {
	runID string
	logf  component.Logf

	cameras   []*component.Camera
	reference *component.Camera
	eye       *component.Camera
	skeleton  *component.Skeleton
	imus      []*component.IMU
	plots     []*component.LinePlot

	components map[string]component.DataComponent

	coord *timeline.Coordinator

	mu          sync.Mutex
	tick        int
	annotations []types.Annotation
}

// New loads every modality named in cfg and assembles the session. Optional
// modalities that fail to build are skipped with a warning; losing the
// reference camera is fatal.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Session, error) {
	logf := deps.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	openStore := deps.OpenStore
	if openStore == nil {
		openStore = func(path string) (ports.SensorStore, error) { return arraystore.Open(path) }
	}

	s := &Session{
		runID:      uuid.NewString(),
		logf:       logf,
		components: make(map[string]component.DataComponent),
	}
	logf("session %s: loading %d cameras", s.runID, len(cfg.Cameras))

	camStore, err := openStore(cfg.CamerasStore)
	if err != nil {
		return nil, fmt.Errorf("open cameras store: %w", err)
	}

	// Cameras build concurrently; results keep config order so that tick
	// claiming during extraction stays deterministic.
	// The session context goes to NewCamera directly: the decode closure
	// inside each camera lives as long as the session, not as long as the
	// build group.
	built := make([]*component.Camera, len(cfg.Cameras))
	var g errgroup.Group
	for i, cc := range cfg.Cameras {
		g.Go(func() error {
			cam, err := component.NewCamera(ctx, cameraConfig(cc, cfg), camStore, deps.Video, logf)
			if err != nil {
				logf("warning: camera %s skipped: %v", cc.UniqueID, err)
				return nil
			}
			built[i] = cam
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, cam := range built {
		if cam == nil {
			continue
		}
		s.cameras = append(s.cameras, cam)
		s.components[cam.UniqueID()] = cam
		if cfg.Cameras[i].IsReference {
			s.reference = cam
		}
	}
	if s.reference == nil {
		return nil, fmt.Errorf("%w: the reference camera failed to load", types.ErrNoReferenceCamera)
	}

	s.buildOptional(ctx, cfg, openStore, deps.Video)

	infos := make([]types.CameraSyncInfo, len(s.cameras))
	for i, cam := range s.cameras {
		infos[i] = cam.CameraSyncInfo()
	}
	tl, err := timeline.Extract(infos)
	if err != nil {
		return nil, fmt.Errorf("extract combined timeline: %w", err)
	}
	s.coord = timeline.NewCoordinator(infos, tl)

	for _, cam := range s.cameras {
		info, err := s.coord.AlignmentFor(cam.UniqueID())
		if err != nil {
			return nil, err
		}
		cam.SetAlignmentInfo(info)
	}

	logf("session %s: %d ticks over %d cameras, trial window [%.3f, %.3f]",
		s.runID, tl.Ticks(), len(s.cameras), tl.StartTrialToaS, tl.EndTrialToaS)
	return s, nil
}

// buildOptional constructs the non-camera modalities. Each one is
// independent: a failure logs a warning and leaves the modality absent.
func (s *Session) buildOptional(ctx context.Context, cfg *config.Config, openStore func(string) (ports.SensorStore, error), video ports.VideoTool) {
	stores := newStoreSet(openStore)

	var g errgroup.Group

	var eye *component.Camera
	if e := cfg.Eye; e != nil {
		g.Go(func() error {
			store, err := stores.open(e.Store)
			if err == nil {
				eye, err = component.NewCamera(ctx, component.CameraConfig{
					UniqueID:        e.UniqueID,
					VideoPath:       e.VideoFile,
					ToaPath:         e.ToaPath,
					TimestampPath:   e.TimestampPath,
					SequencePath:    e.SequencePath,
					PrefetchWindowS: cfg.PrefetchWindowS,
				}, store, video, s.logf)
			}
			if err != nil {
				s.logf("warning: eye camera skipped: %v", err)
			}
			return nil
		})
	}

	var skel *component.Skeleton
	if sc := cfg.Skeleton; sc != nil {
		g.Go(func() error {
			store, err := stores.open(sc.Store)
			if err == nil {
				skel, err = component.NewSkeleton(component.SkeletonConfig{
					UniqueID:       sc.UniqueID,
					PositionPath:   sc.PositionPath,
					PosCounterPath: sc.PosCounterPath,
					TimestampPath:  sc.TimestampPath,
					RefCounterPath: sc.RefCounterPath,
				}, store, s.logf)
			}
			if err != nil {
				s.logf("warning: skeleton %s skipped: %v", sc.UniqueID, err)
			}
			return nil
		})
	}

	imus := make([]*component.IMU, len(cfg.IMUs))
	for i, mc := range cfg.IMUs {
		g.Go(func() error {
			store, err := stores.open(mc.Store)
			var m *component.IMU
			if err == nil {
				m, err = component.NewIMU(component.IMUConfig{
					UniqueID:        mc.UniqueID,
					SensorType:      mc.SensorType,
					DataPath:        mc.DataPath,
					DataCounterPath: mc.DataCounterPath,
					TimestampPath:   mc.TimestampPath,
					RefCounterPath:  mc.RefCounterPath,
				}, store, s.logf)
			}
			if err != nil {
				s.logf("warning: imu %s skipped: %v", mc.UniqueID, err)
				return nil
			}
			imus[i] = m
			return nil
		})
	}

	plots := make([]*component.LinePlot, len(cfg.LinePlots))
	for i, pc := range cfg.LinePlots {
		g.Go(func() error {
			store, err := stores.open(pc.Store)
			var p *component.LinePlot
			if err == nil {
				p, err = component.NewLinePlot(component.LinePlotConfig{
					UniqueID:      pc.UniqueID,
					TimestampPath: pc.TimestampPath,
					ChannelPaths:  pc.ChannelPaths,
					ChannelNames:  pc.ChannelNames,
					YUnits:        pc.YUnits,
				}, store, s.logf)
			}
			if err != nil {
				s.logf("warning: line plot %s skipped: %v", pc.UniqueID, err)
				return nil
			}
			plots[i] = p
			return nil
		})
	}

	_ = g.Wait()

	if eye != nil {
		s.eye = eye
		s.components[eye.UniqueID()] = eye
	}
	if skel != nil {
		s.skeleton = skel
		s.components[skel.UniqueID()] = skel
	}
	for _, m := range imus {
		if m != nil {
			s.imus = append(s.imus, m)
			s.components[m.UniqueID()] = m
		}
	}
	for _, p := range plots {
		if p != nil {
			s.plots = append(s.plots, p)
			s.components[p.UniqueID()] = p
		}
	}
}

func cameraConfig(cc config.Camera, cfg *config.Config) component.CameraConfig {
	return component.CameraConfig{
		UniqueID:        cc.UniqueID,
		VideoPath:       cc.VideoFile,
		ToaPath:         cc.ToaPath,
		TimestampPath:   cc.TimestampPath,
		SequencePath:    cc.SequencePath,
		IsReference:     cc.IsReference,
		PrefetchWindowS: cfg.PrefetchWindowS,
	}
}

// storeSet memoizes array store handles so modalities sharing one file share
// one parse.
type storeSet struct {
	opener func(string) (ports.SensorStore, error)
	mu     sync.Mutex
	stores map[string]ports.SensorStore
	errs   map[string]error
}

func newStoreSet(opener func(string) (ports.SensorStore, error)) *storeSet {
	return &storeSet{opener: opener, stores: make(map[string]ports.SensorStore), errs: make(map[string]error)}
}

func (ss *storeSet) open(path string) (ports.SensorStore, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if st, ok := ss.stores[path]; ok {
		return st, nil
	}
	if err, ok := ss.errs[path]; ok {
		return nil, err
	}
	st, err := ss.opener(path)
	if err != nil {
		ss.errs[path] = err
		return nil, err
	}
	ss.stores[path] = st
	return st, nil
}

// RunID identifies this session in logs.
func (s *Session) RunID() string { return s.runID }

// Start spins up every camera's decode worker.
func (s *Session) Start(ctx context.Context) error {
	for _, cam := range s.videoComponents() {
		if err := cam.Start(ctx); err != nil {
			return fmt.Errorf("start camera %s: %w", cam.UniqueID(), err)
		}
	}
	return nil
}

// Stop shuts the decode workers down. Safe to call more than once.
func (s *Session) Stop() {
	for _, cam := range s.videoComponents() {
		cam.Stop()
	}
}

func (s *Session) videoComponents() []*component.Camera {
	cams := make([]*component.Camera, 0, len(s.cameras)+1)
	cams = append(cams, s.cameras...)
	if s.eye != nil {
		cams = append(cams, s.eye)
	}
	return cams
}

func (s *Session) Cameras() []*component.Camera { return s.cameras }

func (s *Session) Reference() *component.Camera { return s.reference }

func (s *Session) Eye() *component.Camera { return s.eye }

func (s *Session) Skeleton() *component.Skeleton { return s.skeleton }

func (s *Session) IMUs() []*component.IMU { return s.imus }

func (s *Session) LinePlots() []*component.LinePlot { return s.plots }

// Component looks a modality up by id.
func (s *Session) Component(id string) (component.DataComponent, bool) {
	c, ok := s.components[id]
	return c, ok
}

// ComponentIDs returns every modality id, sorted.
func (s *Session) ComponentIDs() []string {
	ids := make([]string, 0, len(s.components))
	for id := range s.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) Timeline() *types.CombinedTimeline { return s.coord.Timeline() }

// Ticks is the length of the combined timeline.
func (s *Session) Ticks() int { return s.coord.Timeline().Ticks() }

var errNoSuchComponent = errors.New("no such component")

// AdjustOffsetMillis nudges one component's offset, the ±1/±10 ms buttons.
func (s *Session) AdjustOffsetMillis(id string, deltaMs float64) error {
	c, ok := s.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", errNoSuchComponent, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.SetOffsetMillis(c.OffsetMillis() + deltaMs)
	return nil
}

// ResetOffset zeroes one component's offset.
func (s *Session) ResetOffset(id string) error {
	c, ok := s.components[id]
	if !ok {
		return fmt.Errorf("%w: %s", errNoSuchComponent, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.SetOffset(0)
	return nil
}

// ApplyOffsets installs an externally supplied offset map (seconds, keyed by
// component id) in one step. Unknown ids are ignored so stale save files
// survive configuration changes.
func (s *Session) ApplyOffsets(offsets map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sec := range offsets {
		if c, ok := s.components[id]; ok {
			c.SetOffset(sec)
		}
	}
}

// SnapshotOffsets captures every non-zero offset for persistence.
func (s *Session) SnapshotOffsets() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64)
	for id, c := range s.components {
		if sec := c.Offset(); sec != 0 {
			out[id] = sec
		}
	}
	return out
}

// Annotate records one labeled segment.
func (s *Session) Annotate(a types.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations = append(s.annotations, a)
	sort.SliceStable(s.annotations, func(i, j int) bool {
		return s.annotations[i].StartToaS < s.annotations[j].StartToaS
	})
}

// Annotations returns the recorded segments ordered by start time.
func (s *Session) Annotations() []types.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}
