package session

import (
	"fmt"
)

// The scrub surface: navigation over the combined timeline plus the pull
// queries the rendering layer issues after every move. Cameras resolve the
// current tick through the coordinator; every other modality slaves off the
// published sync timestamp.

// Tick returns the current combined-timeline position.
func (s *Session) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// SetTick jumps to an absolute tick, clamped into the timeline, and returns
// the position actually installed.
func (s *Session) SetTick(tick int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = clampTick(tick, s.Ticks())
	return s.tick
}

// Step moves the playhead by delta ticks (the ±1/±10/±100/±1000 navigation
// buttons), clamped at the timeline edges.
func (s *Session) Step(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = clampTick(s.tick+delta, s.Ticks())
	return s.tick
}

// SyncTimestamp publishes the global timestamp for the current tick.
func (s *Session) SyncTimestamp() float64 {
	return s.coord.SyncTimestampAt(s.Tick())
}

// SyncTimestampAt publishes the global timestamp for an arbitrary tick.
func (s *Session) SyncTimestampAt(tick int) float64 {
	return s.coord.SyncTimestampAt(tick)
}

// Frame returns the camera's own frame index for the current tick.
func (s *Session) Frame(cameraID string) (int, error) {
	tl := s.coord.Timeline()
	tick := clampTick(s.Tick(), tl.Ticks())
	return s.coord.FrameForTimestamp(cameraID, tl.FrameTimestamps[tick])
}

// FrameBytes decodes the camera's frame for the current tick. A decode
// failure still returns displayable placeholder bytes alongside the error.
func (s *Session) FrameBytes(cameraID string) ([]byte, error) {
	for _, cam := range s.videoComponents() {
		if cam.UniqueID() != cameraID {
			continue
		}
		frameID, err := s.Frame(cameraID)
		if err != nil {
			// The eye camera is not on the timeline: slave it to the
			// sync timestamp.
			frameID = cam.IndexForTime(s.SyncTimestamp())
		}
		return cam.Frame(frameID)
	}
	return nil, fmt.Errorf("%w: %s is not a video component", errNoSuchComponent, cameraID)
}

// Indices resolves the current sync timestamp through every slaved modality
// (everything but the timeline cameras) and returns local index by id.
func (s *Session) Indices() map[string]int {
	sync := s.SyncTimestamp()
	out := make(map[string]int)
	for id, c := range s.components {
		if s.isTimelineCamera(id) {
			continue
		}
		out[id] = c.IndexForTime(sync)
	}
	return out
}

// Status renders the component's position line for the current tick.
func (s *Session) Status(id string) (string, error) {
	c, ok := s.components[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", errNoSuchComponent, id)
	}
	i := c.IndexForTime(s.SyncTimestamp())
	if s.isTimelineCamera(id) {
		if frame, err := s.Frame(id); err == nil {
			i = frame
		}
	}
	return c.Status(i), nil
}

func (s *Session) isTimelineCamera(id string) bool {
	for _, cam := range s.cameras {
		if cam.UniqueID() == id {
			return true
		}
	}
	return false
}

func clampTick(tick, n int) int {
	if n <= 0 {
		return 0
	}
	if tick < 0 {
		return 0
	}
	if tick > n-1 {
		return n - 1
	}
	return tick
}
