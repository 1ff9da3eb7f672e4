package timeline

import (
	"testing"

	"github.com/emedialab/sioviz/internal/types"
)

func buildCoordinator(t *testing.T, cams ...types.CameraSyncInfo) *Coordinator {
	t.Helper()
	tl, err := Extract(cams)
	if err != nil {
		t.Fatal(err)
	}
	return NewCoordinator(cams, tl)
}

func TestFrameForTimestamp(t *testing.T) {
	c := buildCoordinator(t, camX(), camY())

	// Combined tick 1 carries X's frame_timestamp=1; Y's nearest own frame
	// is index 1 (1.1 is 0.1 away, 0.1 is 0.9 away).
	frame, err := c.FrameForTimestamp("Y", 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if frame != 1 {
		t.Fatalf("Y frame for ts 1.0 = %d, want 1", frame)
	}

	frame, err = c.FrameForTimestamp("X", 3.2)
	if err != nil {
		t.Fatal(err)
	}
	if frame != 3 {
		t.Fatalf("X frame for ts 3.2 = %d, want 3", frame)
	}

	if _, err := c.FrameForTimestamp("nope", 0); err == nil {
		t.Fatal("expected error for unknown camera")
	}
}

func TestSequenceAtFrame_Rebased(t *testing.T) {
	c := buildCoordinator(t, camX(), camY())

	// X's window starts at frame 0 (hardware sequence 10), so frame 3 is
	// rebased sequence 3.
	seq, err := c.SequenceAtFrame("X", 3)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 3 {
		t.Fatalf("X rebased sequence at frame 3 = %d, want 3", seq)
	}

	// Y dropped hardware sequence 51: its frame 1 carries sequence 52,
	// rebased to 2.
	seq, err = c.SequenceAtFrame("Y", 1)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 2 {
		t.Fatalf("Y rebased sequence at frame 1 = %d, want 2", seq)
	}

	// Out-of-range frame ids clamp, never error.
	if _, err := c.SequenceAtFrame("Y", 999); err != nil {
		t.Fatalf("expected clamped lookup, got %v", err)
	}
}

func TestSyncTimestampAt_MostAdvancedCameraWins(t *testing.T) {
	c := buildCoordinator(t, camX(), camY())

	// At tick 1 (frame_timestamp 1), X resolves frame 1 (rebased seq 1,
	// toa 101.0) while Y resolves frame 1 which carries rebased seq 2
	// (toa 102.1). Y is further advanced, so its toa is published.
	if got := c.SyncTimestampAt(1); got != 102.1 {
		t.Fatalf("sync timestamp at tick 1 = %v, want 102.1", got)
	}
}

func TestSyncTimestampAt_MinToaAmongEqualSequences(t *testing.T) {
	a := types.CameraSyncInfo{
		UniqueID:       "A",
		ToaS:           []float64{10.0, 11.0, 12.0},
		FrameTimestamp: []float64{0, 1, 2},
		Sequence:       []int64{5, 6, 7},
	}
	// B sees the same instants with a drifted arrival clock.
	b := types.CameraSyncInfo{
		UniqueID:       "B",
		ToaS:           []float64{9.9, 10.9, 11.9},
		FrameTimestamp: []float64{0.01, 1.01, 2.01},
		Sequence:       []int64{20, 21, 22},
	}
	c := buildCoordinator(t, a, b)

	// Both cameras are at rebased sequence 1 at tick 1; B arrived earlier.
	if got := c.SyncTimestampAt(1); got != 10.9 {
		t.Fatalf("sync timestamp at tick 1 = %v, want 10.9", got)
	}
}

func TestSyncTimestampAt_ClampsTick(t *testing.T) {
	c := buildCoordinator(t, camX())
	low := c.SyncTimestampAt(-5)
	high := c.SyncTimestampAt(9999)
	if low != c.SyncTimestampAt(0) {
		t.Fatalf("negative tick did not clamp: %v", low)
	}
	if high != c.SyncTimestampAt(c.Timeline().Ticks()-1) {
		t.Fatalf("overlarge tick did not clamp: %v", high)
	}
}
