package component

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/emedialab/sioviz/internal/cache"
	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/ports"
	"github.com/emedialab/sioviz/internal/types"
)

// CameraConfig names the video file and the store paths for one camera.
type CameraConfig struct {
	UniqueID      string
	VideoPath     string
	ToaPath       string
	TimestampPath string
	SequencePath  string
	IsReference   bool
	// PrefetchWindowS sizes the decode batch: window seconds times the
	// stream framerate.
	PrefetchWindowS float64
}

// Camera is a video modality: synchronized timestamp series plus lazily
// decoded frames behind a batch cache. The eye camera is a Camera that is
// simply never marked as reference.
type Camera struct {
	base
	cfg   CameraConfig
	props types.VideoProperties

	frameTimestamp []float64
	sequence       []int64

	cache       *cache.Cache[[]byte]
	placeholder []byte
}

// NewCamera loads the camera's synchronization series from the store,
// probes the video file, and builds the decode cache. Parallel series that
// disagree in length are truncated to their common prefix with a
// diagnostic; fabricated data is never produced.
func NewCamera(ctx context.Context, cfg CameraConfig, store ports.SensorStore, video ports.VideoTool, logf Logf) (*Camera, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	toas, err := loadFloats(store, cfg.ToaPath)
	if err != nil {
		return nil, err
	}
	timestamps, err := loadFloats(store, cfg.TimestampPath)
	if err != nil {
		return nil, err
	}
	sequence, err := store.Ints(cfg.SequencePath)
	if err != nil {
		return nil, err
	}

	n := len(toas)
	if len(timestamps) < n {
		n = len(timestamps)
	}
	if len(sequence) < n {
		n = len(sequence)
	}
	if n != len(toas) || n != len(timestamps) || n != len(sequence) {
		logf("camera %s: parallel series disagree (%d toa, %d timestamp, %d sequence), truncating to %d",
			cfg.UniqueID, len(toas), len(timestamps), len(sequence), n)
		toas, timestamps, sequence = toas[:n], timestamps[:n], sequence[:n]
	}

	props, err := video.Probe(ctx, cfg.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", cfg.UniqueID, err)
	}

	b, err := newBase(cfg.UniqueID, toas)
	if err != nil {
		return nil, err
	}

	windowS := cfg.PrefetchWindowS
	if windowS <= 0 {
		windowS = 10.0
	}
	batch := int(props.FPS*windowS + 0.5)
	if batch < 1 {
		batch = 1
	}
	// A third of the batch stays behind the playhead so reverse scrubbing
	// during review hits cache too.
	fetchOffset := batch / 3

	cam := &Camera{
		base:           b,
		cfg:            cfg,
		props:          props,
		frameTimestamp: timestamps,
		sequence:       sequence,
		placeholder:    blankJPEG(props.Width, props.Height),
	}
	cam.cache, err = cache.New(func(start int) (map[int][]byte, error) {
		return video.DecodeBatch(ctx, cfg.VideoPath, props.FPS, start, batch)
	}, batch, fetchOffset)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", cfg.UniqueID, err)
	}
	return cam, nil
}

// Start launches the decode cache's prefetch worker.
func (c *Camera) Start(ctx context.Context) error { return c.cache.Start(ctx) }

// Stop shuts the prefetch worker down.
func (c *Camera) Stop() { c.cache.Stop() }

func (c *Camera) IsReference() bool { return c.cfg.IsReference }

func (c *Camera) Properties() types.VideoProperties { return c.props }

// Frame returns the decoded frame at frameID, clamped into the stream's
// range. On decode failure it returns a blank frame of the stream's
// dimensions along with the error, so a rendering boundary can show a
// visible but non-fatal placeholder.
func (c *Camera) Frame(frameID int) ([]byte, error) {
	if c.props.TotalFrames <= 0 {
		return c.placeholder, fmt.Errorf("%w: %s reports no frames", types.ErrDecodeFailure, c.cfg.VideoPath)
	}
	frameID = clampIndex(frameID, c.props.TotalFrames)
	buf, err := c.cache.Get(frameID)
	if err != nil {
		return c.placeholder, fmt.Errorf("%w: frame %d of %s: %v", types.ErrDecodeFailure, frameID, c.cfg.VideoPath, err)
	}
	return buf, nil
}

// FrameForTimestamp finds the frame index nearest the given onboard clock
// value. Cross-camera matching has no before/after preference, so the
// symmetric rule applies here.
func (c *Camera) FrameForTimestamp(frameTimestamp float64) int {
	return series.NearestIndex(c.frameTimestamp, frameTimestamp)
}

// TimestampAtFrame returns the onboard clock value at a frame.
func (c *Camera) TimestampAtFrame(frameID int) float64 {
	return c.frameTimestamp[clampIndex(frameID, len(c.frameTimestamp))]
}

// ToaAtFrame returns the time-of-arrival at a frame.
func (c *Camera) ToaAtFrame(frameID int) float64 { return c.TimeAt(frameID) }

// SequenceAtFrame returns the hardware sequence counter at a frame, rebased
// against the camera's aligned window start.
func (c *Camera) SequenceAtFrame(frameID int) int64 {
	frameID = clampIndex(frameID, len(c.sequence))
	start := clampIndex(c.AlignmentInfo().StartID, len(c.sequence))
	return c.sequence[frameID] - c.sequence[start]
}

// CameraSyncInfo returns the full three-series material consumed by the
// reference-tick extractor.
func (c *Camera) CameraSyncInfo() types.CameraSyncInfo {
	return types.CameraSyncInfo{
		UniqueID:       c.cfg.UniqueID,
		ToaS:           c.toas,
		FrameTimestamp: c.frameTimestamp,
		Sequence:       c.sequence,
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// blankJPEG encodes a black frame of the stream's dimensions, substituted
// when decoding fails.
func blankJPEG(w, h int) []byte {
	if w <= 0 || h <= 0 {
		w, h = 16, 16
	}
	var buf bytes.Buffer
	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil
	}
	return buf.Bytes()
}
