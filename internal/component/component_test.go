package component

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/emedialab/sioviz/internal/types"
)

type fakeStore struct {
	floats map[string][]float64
	ints   map[string][]int64
	mats   map[string][][]float64
}

func (s *fakeStore) Floats(path string) ([]float64, error) {
	v, ok := s.floats[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingData, path)
	}
	return v, nil
}

func (s *fakeStore) Ints(path string) ([]int64, error) {
	v, ok := s.ints[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingData, path)
	}
	return v, nil
}

func (s *fakeStore) Matrix(path string) ([][]float64, error) {
	v, ok := s.mats[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMissingData, path)
	}
	return v, nil
}

type fakeVideo struct {
	props      types.VideoProperties
	failDecode bool
}

func (v *fakeVideo) Probe(ctx context.Context, path string) (types.VideoProperties, error) {
	return v.props, nil
}

func (v *fakeVideo) DecodeBatch(ctx context.Context, path string, fps float64, start, n int) (map[int][]byte, error) {
	if v.failDecode {
		return nil, errors.New("decode failed")
	}
	out := make(map[int][]byte, n)
	for i := start; i < start+n; i++ {
		out[i] = []byte(fmt.Sprintf("%s#%d", path, i))
	}
	return out, nil
}

func cameraFixture() (*fakeStore, *fakeVideo, CameraConfig) {
	store := &fakeStore{
		floats: map[string][]float64{
			"/cameras/a/toa_s":           {100, 101, 102, 103},
			"/cameras/a/frame_timestamp": {0, 1, 2, 3},
		},
		ints: map[string][]int64{
			"/cameras/a/frame_sequence_id": {10, 11, 12, 13},
		},
	}
	video := &fakeVideo{props: types.VideoProperties{Width: 64, Height: 48, FPS: 2, TotalFrames: 4}}
	cfg := CameraConfig{
		UniqueID:        "a",
		VideoPath:       "a.mkv",
		ToaPath:         "/cameras/a/toa_s",
		TimestampPath:   "/cameras/a/frame_timestamp",
		SequencePath:    "/cameras/a/frame_sequence_id",
		PrefetchWindowS: 2,
	}
	return store, video, cfg
}

func TestNewCamera(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cam.Len() != 4 {
		t.Fatalf("len = %d, want 4", cam.Len())
	}

	buf, err := cam.Frame(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "a.mkv#2" {
		t.Fatalf("frame payload = %q", buf)
	}
}

func TestNewCamera_MissingPath(t *testing.T) {
	store, video, cfg := cameraFixture()
	delete(store.floats, "/cameras/a/frame_timestamp")
	_, err := NewCamera(context.Background(), cfg, store, video, nil)
	if !errors.Is(err, types.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}

func TestNewCamera_TruncatesMismatchedSeries(t *testing.T) {
	store, video, cfg := cameraFixture()
	store.ints["/cameras/a/frame_sequence_id"] = []int64{10, 11}

	var logged strings.Builder
	logf := func(format string, args ...any) { fmt.Fprintf(&logged, format, args...) }

	cam, err := NewCamera(context.Background(), cfg, store, video, logf)
	if err != nil {
		t.Fatal(err)
	}
	if cam.Len() != 2 {
		t.Fatalf("len = %d, want 2", cam.Len())
	}
	if !strings.Contains(logged.String(), "truncating") {
		t.Fatalf("expected truncation diagnostic, got %q", logged.String())
	}
}

func TestCamera_FrameDecodeFailure(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}

	video.failDecode = true
	buf, err := cam.Frame(1)
	if !errors.Is(err, types.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
	if len(buf) == 0 {
		t.Fatal("expected a placeholder frame alongside the error")
	}
}

func TestCamera_FrameClamps(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := cam.Frame(999)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "a.mkv#3" {
		t.Fatalf("clamped frame = %q, want last frame", buf)
	}
}

func TestCamera_SequenceAtFrameRebased(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}
	cam.SetAlignmentInfo(types.AlignmentInfo{StartID: 1, EndID: 3})
	if got := cam.SequenceAtFrame(3); got != 2 {
		t.Fatalf("rebased sequence = %d, want 2", got)
	}
}

func TestCamera_FrameForTimestamp(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := cam.FrameForTimestamp(2.4); got != 2 {
		t.Fatalf("frame for timestamp 2.4 = %d, want 2", got)
	}
}

func TestNewSkeleton_CounterMatching(t *testing.T) {
	store := &fakeStore{
		floats: map[string][]float64{
			"/mvn/time": {10, 10.5, 11, 11.5},
		},
		ints: map[string][]int64{
			"/mvn/ref_counter":  {1, 2, 3, 4},
			"/mvn/pose_counter": {1, 3, 4},
		},
		mats: map[string][][]float64{
			"/mvn/pose": {{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}},
		},
	}
	cfg := SkeletonConfig{
		UniqueID:       "skeleton_mvn",
		PositionPath:   "/mvn/pose",
		PosCounterPath: "/mvn/pose_counter",
		TimestampPath:  "/mvn/time",
		RefCounterPath: "/mvn/ref_counter",
	}

	sk, err := NewSkeleton(cfg, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Counter 2 has no pose row: three matched samples survive.
	if sk.Len() != 3 {
		t.Fatalf("len = %d, want 3", sk.Len())
	}
	// Second surviving sample is ref counter 3 -> toa 11, pose row 1.
	if got := sk.IndexForTime(11.2); got != 1 {
		t.Fatalf("index for 11.2 = %d, want 1", got)
	}
	pose := sk.PoseAt(1)
	if pose[0] != 0.3 {
		t.Fatalf("pose row = %v", pose)
	}
}

func TestNewIMU_JointAccess(t *testing.T) {
	store := &fakeStore{
		floats: map[string][]float64{
			"/mvn/time": {10, 10.5},
		},
		ints: map[string][]int64{
			"/mvn/ref_counter":  {1, 2},
			"/mvn/data_counter": {1, 2},
		},
		mats: map[string][][]float64{
			"/mvn/accel": {
				{1, 2, 3, 4, 5, 6},
				{7, 8, 9, 10, 11, 12},
			},
		},
	}
	cfg := IMUConfig{
		UniqueID:        "imu_accelerometer",
		SensorType:      "accelerometer",
		DataPath:        "/mvn/accel",
		DataCounterPath: "/mvn/data_counter",
		TimestampPath:   "/mvn/time",
		RefCounterPath:  "/mvn/ref_counter",
	}

	m, err := NewIMU(cfg, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	joint, err := m.JointSampleAt(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if joint[0] != 10 || joint[2] != 12 {
		t.Fatalf("joint sample = %v", joint)
	}
	if _, err := m.JointSampleAt(0, 5); err == nil {
		t.Fatal("expected error for joint outside row")
	}
}

func TestNewLinePlot_TruncatesShortChannel(t *testing.T) {
	store := &fakeStore{
		floats: map[string][]float64{
			"/insoles/toa_s": {1, 2, 3, 4},
			"/insoles/left":  {0.1, 0.2, 0.3, 0.4},
			"/insoles/right": {0.5, 0.6, 0.7},
		},
	}
	cfg := LinePlotConfig{
		UniqueID:      "insole_forces",
		TimestampPath: "/insoles/toa_s",
		ChannelPaths:  []string{"/insoles/left", "/insoles/right"},
		ChannelNames:  []string{"Left", "Right"},
		YUnits:        "N",
	}

	var logged strings.Builder
	p, err := NewLinePlot(cfg, store, func(format string, args ...any) { fmt.Fprintf(&logged, format+"\n", args...) })
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 {
		t.Fatalf("len = %d, want 3", p.Len())
	}
	if !strings.Contains(logged.String(), "truncat") {
		t.Fatalf("expected truncation diagnostic, got %q", logged.String())
	}
	v, err := p.ValueAt(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.7 {
		t.Fatalf("value = %v, want 0.7", v)
	}
	if _, err := p.ValueAt(9, 0); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestStatusShowsOffset(t *testing.T) {
	store, video, cfg := cameraFixture()
	cam, err := NewCamera(context.Background(), cfg, store, video, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := cam.Status(1)
	if !strings.Contains(s, "(frame: 1)") {
		t.Fatalf("expected frame label in status, got %q", s)
	}
	if strings.Contains(s, "offset") {
		t.Fatalf("zero offset should not render: %q", s)
	}
	cam.SetOffsetMillis(250)
	if s := cam.Status(1); !strings.Contains(s, "+250ms") {
		t.Fatalf("expected offset in status, got %q", s)
	}
}
