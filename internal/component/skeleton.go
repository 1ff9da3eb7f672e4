package component

import (
	"fmt"

	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/ports"
	"github.com/emedialab/sioviz/internal/types"
)

// SegmentNames are the full-body segments of the motion-capture skeleton,
// in row order of the pose matrix (23 segments x 3 coordinates per sample).
var SegmentNames = []string{
	"Pelvis", "L5", "L3", "T12", "T8", "Neck", "Head",
	"Right Shoulder", "Right Upper Arm", "Right Forearm", "Right Hand",
	"Left Shoulder", "Left Upper Arm", "Left Forearm", "Left Hand",
	"Right Upper Leg", "Right Lower Leg", "Right Foot", "Right Toe",
	"Left Upper Leg", "Left Lower Leg", "Left Foot", "Left Toe",
}

// SkeletonConfig names the store paths for the motion-capture pose stream.
// The pose rows carry their own hardware counter, matched against the
// reference counter that accompanies the timestamp series.
type SkeletonConfig struct {
	UniqueID       string
	PositionPath   string
	PosCounterPath string
	TimestampPath  string
	RefCounterPath string
}

// Skeleton is the full-body pose modality.
type Skeleton struct {
	base
	poses [][]float64
}

// NewSkeleton loads and counter-aligns the pose stream. Samples whose
// reference counter has no matching pose counter are dropped on both sides;
// the result keeps only matched pairs, reported through logf when anything
// was dropped.
func NewSkeleton(cfg SkeletonConfig, store ports.SensorStore, logf Logf) (*Skeleton, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	toas, err := loadFloats(store, cfg.TimestampPath)
	if err != nil {
		return nil, err
	}
	refCounters, err := store.Ints(cfg.RefCounterPath)
	if err != nil {
		return nil, err
	}
	posCounters, err := store.Ints(cfg.PosCounterPath)
	if err != nil {
		return nil, err
	}
	poses, err := store.Matrix(cfg.PositionPath)
	if err != nil {
		return nil, err
	}
	if len(poses) != len(posCounters) {
		return nil, fmt.Errorf("skeleton %s: %d pose rows vs %d counters", cfg.UniqueID, len(poses), len(posCounters))
	}
	if len(toas) != len(refCounters) {
		return nil, fmt.Errorf("skeleton %s: %d timestamps vs %d reference counters", cfg.UniqueID, len(toas), len(refCounters))
	}

	refIdx, dataIdx := series.MatchByCounter(refCounters, posCounters)
	if len(refIdx) == 0 {
		return nil, fmt.Errorf("%w: skeleton %s has no counter-matched samples", types.ErrMissingData, cfg.UniqueID)
	}
	if len(refIdx) != len(toas) || len(dataIdx) != len(poses) {
		logf("skeleton %s: counter match kept %d of %d timestamps, %d of %d pose rows",
			cfg.UniqueID, len(refIdx), len(toas), len(dataIdx), len(poses))
	}

	matchedToas := make([]float64, len(refIdx))
	matchedPoses := make([][]float64, len(refIdx))
	for i := range refIdx {
		matchedToas[i] = toas[refIdx[i]]
		matchedPoses[i] = poses[dataIdx[i]]
	}

	b, err := newBase(cfg.UniqueID, matchedToas)
	if err != nil {
		return nil, err
	}
	return &Skeleton{base: b, poses: matchedPoses}, nil
}

// PoseAt returns the pose row at a local index, clamped into range.
func (s *Skeleton) PoseAt(i int) []float64 {
	return s.poses[clampIndex(i, len(s.poses))]
}
