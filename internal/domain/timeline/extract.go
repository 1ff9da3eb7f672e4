// Package timeline builds the canonical combined timeline from the reference
// cameras and reconciles slider positions back into a single published sync
// timestamp.
package timeline

import (
	"fmt"
	"sort"

	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/types"
)

// Extract merges the reference cameras' frame sequences into one combined
// timeline with no duplicate ticks, tolerant to any single camera dropping a
// frame that another camera still has.
//
// For each camera the overlapping window common to all cameras is trimmed by
// nearest frame_timestamp match, the hardware sequence counter is re-based to
// zero at the window start, and the union of rebased sequence ids is claimed
// camera-by-camera in input order so each real-world instant contributes
// exactly one tick.
func Extract(cameras []types.CameraSyncInfo) (*types.CombinedTimeline, error) {
	if len(cameras) == 0 {
		return nil, types.ErrNoReferenceCamera
	}
	for _, cam := range cameras {
		if len(cam.FrameTimestamp) == 0 {
			return nil, fmt.Errorf("%w: camera %s has no frames", types.ErrMissingData, cam.UniqueID)
		}
		if len(cam.FrameTimestamp) != len(cam.ToaS) || len(cam.FrameTimestamp) != len(cam.Sequence) {
			return nil, fmt.Errorf("camera %s: parallel series disagree (%d toa, %d timestamp, %d sequence)",
				cam.UniqueID, len(cam.ToaS), len(cam.FrameTimestamp), len(cam.Sequence))
		}
	}

	// Intersection of per-camera coverage: latest first tick, earliest last.
	windowStart := cameras[0].FrameTimestamp[0]
	windowEnd := cameras[0].FrameTimestamp[len(cameras[0].FrameTimestamp)-1]
	for _, cam := range cameras[1:] {
		if first := cam.FrameTimestamp[0]; first > windowStart {
			windowStart = first
		}
		if last := cam.FrameTimestamp[len(cam.FrameTimestamp)-1]; last < windowEnd {
			windowEnd = last
		}
	}

	alignment := make(map[string]types.AlignmentInfo, len(cameras))
	startTrialToa := 0.0
	endTrialToa := 0.0

	// Per camera: rebased sequence id -> local frame index inside the
	// trimmed window.
	frameBySeq := make([]map[int64]int, len(cameras))
	union := make(map[int64]struct{})

	for ci, cam := range cameras {
		startID := series.NearestIndex(cam.FrameTimestamp, windowStart)
		endID := series.NearestIndex(cam.FrameTimestamp, windowEnd)
		alignment[cam.UniqueID] = types.AlignmentInfo{StartID: startID, EndID: endID}

		startToa := cam.ToaS[startID]
		endToa := cam.ToaS[endID]
		if ci == 0 || startToa > startTrialToa {
			startTrialToa = startToa
		}
		if ci == 0 || endToa < endTrialToa {
			endTrialToa = endToa
		}

		lookup := make(map[int64]int)
		// A camera with no frames inside the common window contributes
		// nothing to the union; it still carries AlignmentInfo and will
		// show clamped frames when scrubbed.
		base := cam.Sequence[startID]
		for i := startID; i <= endID && i < len(cam.Sequence); i++ {
			rebased := cam.Sequence[i] - base
			if _, seen := lookup[rebased]; !seen {
				lookup[rebased] = i
			}
			union[rebased] = struct{}{}
		}
		frameBySeq[ci] = lookup
	}

	seqIDs := make([]int64, 0, len(union))
	for id := range union {
		seqIDs = append(seqIDs, id)
	}
	sort.Slice(seqIDs, func(i, j int) bool { return seqIDs[i] < seqIDs[j] })

	// Each sequence id is claimed by the first camera that captured it, so
	// the same real-world instant is never counted twice.
	type tick struct {
		frameTimestamp float64
		toa            float64
	}
	ticks := make([]tick, 0, len(seqIDs))
	for _, id := range seqIDs {
		for ci, cam := range cameras {
			if i, ok := frameBySeq[ci][id]; ok {
				ticks = append(ticks, tick{frameTimestamp: cam.FrameTimestamp[i], toa: cam.ToaS[i]})
				break
			}
		}
	}

	sort.Slice(ticks, func(i, j int) bool { return ticks[i].frameTimestamp < ticks[j].frameTimestamp })

	tl := &types.CombinedTimeline{
		Alignment:      alignment,
		StartTrialToaS: startTrialToa,
		EndTrialToaS:   endTrialToa,
	}
	for i, tk := range ticks {
		// Distinct sequence ids can still collapse onto one timestamp when
		// clocks agree exactly; the slider domain keeps single ticks only.
		if i > 0 && tk.frameTimestamp == ticks[i-1].frameTimestamp {
			continue
		}
		tl.FrameTimestamps = append(tl.FrameTimestamps, tk.frameTimestamp)
		tl.ToaS = append(tl.ToaS, tk.toa)
	}
	return tl, nil
}
