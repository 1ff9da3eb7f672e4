package ports

import (
	"context"

	"github.com/emedialab/sioviz/internal/types"
)

// VideoTool is the contract with the external video backend: frame-accurate
// batch decoding of a seekable media file and stream property reporting.
type VideoTool interface {
	// Probe reports width/height/framerate/total-frame-count for a file.
	Probe(ctx context.Context, videoPath string) (types.VideoProperties, error)
	// DecodeBatch seeks to startFrame (using the stream's framerate, as
	// reported by Probe) and decodes n consecutive frames, keyed by
	// absolute frame index. Seeking must be frame-accurate to within one
	// frame.
	DecodeBatch(ctx context.Context, videoPath string, fps float64, startFrame, n int) (map[int][]byte, error)
}

// SensorStore loads named numeric arrays from a modality's structured
// recording file. Implementations own the file format; callers only see
// hierarchical paths like "/cameras/40478064/toa_s".
type SensorStore interface {
	// Floats reads a 1-D float64 array. A missing path is reported with an
	// error wrapping types.ErrMissingData.
	Floats(path string) ([]float64, error)
	// Ints reads a 1-D int64 array (hardware counters, sequence ids). A
	// missing path is reported with an error wrapping types.ErrMissingData.
	Ints(path string) ([]int64, error)
	// Matrix reads a 2-D float64 array as rows of equal width.
	Matrix(path string) ([][]float64, error)
}
