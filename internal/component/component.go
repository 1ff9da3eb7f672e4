// Package component implements the per-modality data components: cameras,
// the egocentric eye camera, the motion-capture skeleton, per-joint IMU
// streams and scalar line-plot signals. Every modality resolves the shared
// sync timestamp to its own local sample index; video modalities
// additionally route that index through a decode cache for pixel data.
package component

import (
	"fmt"

	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/ports"
	"github.com/emedialab/sioviz/internal/types"
)

// DataComponent is the capability set shared by all modalities. Offsets and
// AlignmentInfo mutate only through their setters; the time series behind
// IndexForTime is immutable after construction.
type DataComponent interface {
	UniqueID() string
	// IndexForTime resolves the global sync timestamp to the local index of
	// the last sample not after it, honoring the component's offset.
	IndexForTime(globalTime float64) int
	SetOffset(sec float64)
	Offset() float64
	SetOffsetMillis(ms float64)
	OffsetMillis() float64
	SetAlignmentInfo(info types.AlignmentInfo)
	AlignmentInfo() types.AlignmentInfo
	SyncInfo() types.SeriesInfo
	// Status renders the resolved position at a local index for display.
	Status(i int) string
	Len() int
}

// Logf is the diagnostic sink threaded through component construction.
type Logf func(format string, args ...any)

// base carries the behavior every modality shares: a timestamp index, an
// id, and the offset/alignment plumbing.
type base struct {
	id    string
	toas  []float64
	index *series.Index
}

func newBase(id string, toas []float64) (base, error) {
	idx, err := series.NewIndex(toas)
	if err != nil {
		return base{}, fmt.Errorf("component %s: %w", id, err)
	}
	return base{id: id, toas: toas, index: idx}, nil
}

func (b *base) UniqueID() string { return b.id }

func (b *base) SyncInfo() types.SeriesInfo {
	return types.SeriesInfo{UniqueID: b.id, ToaS: b.toas}
}

func (b *base) IndexForTime(globalTime float64) int { return b.index.IndexForTime(globalTime) }

func (b *base) SetOffset(sec float64) { b.index.SetOffset(sec) }

func (b *base) Offset() float64 { return b.index.Offset() }

func (b *base) SetOffsetMillis(ms float64) { b.index.SetOffsetMillis(ms) }

func (b *base) OffsetMillis() float64 { return b.index.OffsetMillis() }

func (b *base) SetAlignmentInfo(info types.AlignmentInfo) { b.index.SetAlignmentInfo(info) }

func (b *base) AlignmentInfo() types.AlignmentInfo { return b.index.AlignmentInfo() }

func (b *base) Len() int { return b.index.Len() }

func (b *base) TimeAt(i int) float64 { return b.index.TimeAt(i) }

// Status renders the resolved position for display next to the modality.
func (b *base) Status(i int) string {
	s := fmt.Sprintf("toa_s: %.5f (frame: %d)", b.index.TimeAt(i), i)
	if ms := b.index.OffsetMillis(); ms != 0 {
		s += fmt.Sprintf(" [offset: %+.0fms]", ms)
	}
	return s
}

// loadFloats reads a required float array, mapping absence to the
// missing-data sentinel carried by the store.
func loadFloats(store ports.SensorStore, path string) ([]float64, error) {
	vals, err := store.Floats(path)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", types.ErrMissingData, path)
	}
	return vals, nil
}
