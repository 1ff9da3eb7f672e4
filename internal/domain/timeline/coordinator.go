package timeline

import (
	"fmt"

	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/types"
)

// Coordinator ties the combined timeline back to the physical camera
// streams. It owns the per-camera AlignmentInfo produced by Extract and
// publishes the sync timestamp for a slider tick.
type Coordinator struct {
	order    []string
	cameras  map[string]types.CameraSyncInfo
	timeline *types.CombinedTimeline
}

func NewCoordinator(cameras []types.CameraSyncInfo, tl *types.CombinedTimeline) *Coordinator {
	c := &Coordinator{
		cameras:  make(map[string]types.CameraSyncInfo, len(cameras)),
		timeline: tl,
	}
	for _, cam := range cameras {
		c.order = append(c.order, cam.UniqueID)
		c.cameras[cam.UniqueID] = cam
	}
	return c
}

func (c *Coordinator) Timeline() *types.CombinedTimeline { return c.timeline }

// AlignmentFor returns the camera's start/end indices into its own local
// timeline for the common window.
func (c *Coordinator) AlignmentFor(cameraID string) (types.AlignmentInfo, error) {
	info, ok := c.timeline.Alignment[cameraID]
	if !ok {
		return types.AlignmentInfo{}, fmt.Errorf("unknown camera %s", cameraID)
	}
	return info, nil
}

// FrameForTimestamp resolves a combined-timeline frame_timestamp into the
// camera's own frame index by symmetric nearest match. The target comes from
// another device's clock, so there is no before/after preference here.
func (c *Coordinator) FrameForTimestamp(cameraID string, frameTimestamp float64) (int, error) {
	cam, ok := c.cameras[cameraID]
	if !ok {
		return 0, fmt.Errorf("unknown camera %s", cameraID)
	}
	return series.NearestIndex(cam.FrameTimestamp, frameTimestamp), nil
}

// SequenceAtFrame returns the hardware sequence counter at frameID, re-based
// so that sequence 0 is the camera's first frame inside the common window.
func (c *Coordinator) SequenceAtFrame(cameraID string, frameID int) (int64, error) {
	cam, ok := c.cameras[cameraID]
	if !ok {
		return 0, fmt.Errorf("unknown camera %s", cameraID)
	}
	align := c.timeline.Alignment[cameraID]
	frameID = clamp(frameID, 0, len(cam.Sequence)-1)
	return cam.Sequence[frameID] - cam.Sequence[align.StartID], nil
}

// SyncTimestampAt reconciles a combined-timeline tick into the single
// published sync timestamp. Across cameras, the maximum rebased sequence
// number present wins (the most advanced camera at this tick); among cameras
// sharing that maximum, the minimum time-of-arrival is taken, so a lagging
// camera never drags the timestamp back and the lowest clock never biases it
// forward.
func (c *Coordinator) SyncTimestampAt(tick int) float64 {
	tick = clamp(tick, 0, c.timeline.Ticks()-1)
	target := c.timeline.FrameTimestamps[tick]

	var (
		bestSeq int64
		bestToa float64
		found   bool
	)
	for _, id := range c.order {
		cam := c.cameras[id]
		frameID, err := c.FrameForTimestamp(id, target)
		if err != nil {
			continue
		}
		seq, err := c.SequenceAtFrame(id, frameID)
		if err != nil {
			continue
		}
		toa := cam.ToaS[frameID]
		switch {
		case !found, seq > bestSeq:
			bestSeq, bestToa, found = seq, toa, true
		case seq == bestSeq && toa < bestToa:
			bestToa = toa
		}
	}
	if !found {
		return c.timeline.ToaS[tick]
	}
	return bestToa
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
