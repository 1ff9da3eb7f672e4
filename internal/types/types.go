package types

import "errors"

// AlignmentInfo marks, in a component's own local timeline, the sample
// indices nearest the experiment-wide common start and end instants. It is
// computed once at startup by the reference-tick extractor and injected into
// components after construction.
type AlignmentInfo struct {
	StartID int `json:"start_id"`
	EndID   int `json:"end_id"`
}

// CameraSyncInfo is the per-camera synchronization material consumed by the
// reference-tick extractor. All three series are parallel and equal length.
type CameraSyncInfo struct {
	UniqueID string
	// ToaS is the time-of-arrival in seconds, the canonical cross-modality
	// synchronization clock.
	ToaS []float64
	// FrameTimestamp is the onboard camera clock attached to each frame,
	// used only for cross-camera frame matching.
	FrameTimestamp []float64
	// Sequence is the hardware frame counter, used to detect and align
	// across dropped frames.
	Sequence []int64
}

// SeriesInfo is the synchronization material for non-camera modalities:
// time-of-arrival values only.
type SeriesInfo struct {
	UniqueID string
	ToaS     []float64
}

// CombinedTimeline is the deduplicated, sorted union of the reference
// cameras' frame ticks after dropped-frame-aware alignment. It is the domain
// of the frame-navigation slider. Immutable after construction.
type CombinedTimeline struct {
	// FrameTimestamps is strictly increasing.
	FrameTimestamps []float64
	// ToaS is parallel to FrameTimestamps.
	ToaS []float64
	// Alignment maps camera unique id to its local start/end indices.
	Alignment map[string]AlignmentInfo
	// StartTrialToaS and EndTrialToaS are the conservative trial bounds:
	// every camera has data inside [StartTrialToaS, EndTrialToaS].
	StartTrialToaS float64
	EndTrialToaS   float64
}

// Ticks returns the number of navigable positions on the combined timeline.
func (c *CombinedTimeline) Ticks() int { return len(c.FrameTimestamps) }

// VideoProperties describes an on-disk video stream as reported by the
// probing tool.
type VideoProperties struct {
	Width       int
	Height      int
	FPS         float64
	TotalFrames int
}

// Annotation is a labelled temporal segment on the shared timeline. The
// editing UI and its persistence live outside this core; the record shape is
// the data contract with them.
type Annotation struct {
	Label     string  `json:"label"`
	Value     string  `json:"value"`
	StartToaS float64 `json:"start_toa_s"`
	EndToaS   float64 `json:"end_toa_s"`
}

// ActivityLabel pairs a display label with the value persisted to file.
type ActivityLabel struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ActivityLabels is the activity vocabulary offered by the annotation panel.
var ActivityLabels = []ActivityLabel{
	{Label: "1. Standing", Value: "Standing"},
	{Label: "2. Walking", Value: "Walking"},
	{Label: "3. Sitting", Value: "Sitting"},
	{Label: "4. Sitting Down", Value: "Sitting Down"},
	{Label: "5. Standing Up", Value: "Standing Up"},
	{Label: "6. Stair Ascent", Value: "Stair Ascent"},
	{Label: "7. Stair Descent", Value: "Stair Descent"},
	{Label: "8. Slope Ascent", Value: "Slope Ascent"},
	{Label: "9. Slope Descent", Value: "Slope Descent"},
	{Label: "10. Step Over", Value: "Step Over"},
	{Label: "11. Cross Country", Value: "Cross Country"},
	{Label: "12. Box Pickup", Value: "Box Pickup"},
	{Label: "13. Box Putdown", Value: "Box Putdown"},
	{Label: "14. Slalom", Value: "Slalom"},
	{Label: "15. Slalom Left Turn", Value: "Slalom Left Turn"},
	{Label: "16. Slalom Right Turn", Value: "Slalom Right Turn"},
	{Label: "17. Standing Turn Left", Value: "Standing Turn Left"},
	{Label: "18. Standing Turn Right", Value: "Standing Turn Right"},
	{Label: "19. Radius Turn Left", Value: "Radius Turn Left"},
	{Label: "20. Radius Turn Right", Value: "Radius Turn Right"},
}

// ErrMissingData reports that a required array or path is absent from a
// modality's source. Fatal to that modality's construction only; the session
// treats the modality as absent and continues.
var ErrMissingData = errors.New("required data missing")

// ErrNoReferenceCamera reports that zero cameras qualify as synchronization
// reference. Fatal at startup.
var ErrNoReferenceCamera = errors.New("no reference camera")

// ErrDecodeFailure reports that the video backend failed to produce a frame.
// Recovered at the component boundary with a placeholder frame.
var ErrDecodeFailure = errors.New("frame decode failed")
