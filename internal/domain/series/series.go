// Package series resolves global time values to local sample indices for a
// single modality. The canonical rule is "last sample not after the target":
// a review tool must never show data from ahead of the scrub position.
package series

import (
	"fmt"
	"sort"

	"github.com/emedialab/sioviz/internal/types"
)

// NotAfterIndex returns the index of the greatest value <= t, clamped into
// [0, len(vals)-1]. Values must be sorted non-decreasing. A t before the
// first value returns 0; a t past the last returns the last index.
// Out-of-range is an expected, frequent condition and never an error.
func NotAfterIndex(vals []float64, t float64) int {
	// Count of samples whose value is <= t.
	n := sort.Search(len(vals), func(i int) bool { return vals[i] > t })
	if n == 0 {
		return 0
	}
	return n - 1
}

// tieEps is the slack, in seconds, under which two candidate distances in
// NearestIndex count as equal. Distances that should tie exactly (t halfway
// between two samples) rarely do in binary floating point; a nanosecond of
// slack absorbs the rounding without affecting any real sensor interval.
const tieEps = 1e-9

// NearestIndex returns the index with the smallest absolute difference to t.
// Ties resolve to the earlier sample. The symmetric rule is the right match
// when vals is another device's clock and there is no before/after
// preference (cross-camera frame matching, window trimming).
func NearestIndex(vals []float64, t float64) int {
	if len(vals) == 0 {
		return 0
	}
	i := NotAfterIndex(vals, t)
	if i+1 < len(vals) && vals[i+1]-t+tieEps < t-vals[i] {
		return i + 1
	}
	return i
}

// Index is the timestamp-to-index resolver owned by one modality. The time
// series is immutable after construction; only the manual offset and the
// injected AlignmentInfo mutate, and only through their setters.
type Index struct {
	toas   []float64
	offset float64 // seconds
	align  types.AlignmentInfo
}

func NewIndex(toas []float64) (*Index, error) {
	if len(toas) == 0 {
		return nil, fmt.Errorf("%w: empty time series", types.ErrMissingData)
	}
	return &Index{toas: toas, align: types.AlignmentInfo{EndID: len(toas) - 1}}, nil
}

// IndexForTime resolves a global time to the local index of the last sample
// not after globalTime plus the component's offset.
func (x *Index) IndexForTime(globalTime float64) int {
	return NotAfterIndex(x.toas, globalTime+x.offset)
}

// SetOffset stores the manual correction in seconds.
func (x *Index) SetOffset(sec float64) { x.offset = sec }

func (x *Index) Offset() float64 { return x.offset }

// SetOffsetMillis accepts the UI's millisecond granularity. The conversion
// is exact: ms/1000.
func (x *Index) SetOffsetMillis(ms float64) { x.offset = ms / 1000 }

func (x *Index) OffsetMillis() float64 { return x.offset * 1000 }

func (x *Index) SetAlignmentInfo(info types.AlignmentInfo) { x.align = info }

func (x *Index) AlignmentInfo() types.AlignmentInfo { return x.align }

// TimeAt returns the time-of-arrival at a local index, clamped to the series
// bounds.
func (x *Index) TimeAt(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(x.toas) {
		i = len(x.toas) - 1
	}
	return x.toas[i]
}

func (x *Index) Len() int { return len(x.toas) }

// MatchByCounter aligns a data stream to a timestamp stream through their
// hardware counters. For every reference counter that has a matching data
// counter (first occurrence wins), the reference index and the data row
// index are kept, in order. Unmatched reference samples are dropped by the
// caller; the returned slices are parallel.
func MatchByCounter(refCounters, dataCounters []int64) (refIdx, dataIdx []int) {
	firstAt := make(map[int64]int, len(dataCounters))
	for i, c := range dataCounters {
		if _, seen := firstAt[c]; !seen {
			firstAt[c] = i
		}
	}
	for i, c := range refCounters {
		if j, ok := firstAt[c]; ok {
			refIdx = append(refIdx, i)
			dataIdx = append(dataIdx, j)
		}
	}
	return refIdx, dataIdx
}
