// Package config loads and validates the per-trial YAML configuration: which
// cameras exist, which optional modalities to attach, and where their array
// stores and video files live relative to the trial directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full trial configuration.
type Config struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	Hwaccel     string `yaml:"hwaccel"`

	// PrefetchWindowS sizes each camera's decode batch in seconds of video.
	PrefetchWindowS float64 `yaml:"prefetch_window_s"`

	// CamerasStore is the array store holding every camera's sync series.
	CamerasStore string   `yaml:"cameras_store"`
	Cameras      []Camera `yaml:"cameras"`

	Eye       *Eye       `yaml:"eye,omitempty"`
	Skeleton  *Skeleton  `yaml:"skeleton,omitempty"`
	IMUs      []IMU      `yaml:"imus,omitempty"`
	LinePlots []LinePlot `yaml:"line_plots,omitempty"`
}

// Camera names one synchronized camera. The sync series paths default to the
// /cameras/<unique_id>/ layout when left empty.
type Camera struct {
	UniqueID    string `yaml:"unique_id"`
	VideoFile   string `yaml:"video_file"`
	IsReference bool   `yaml:"is_reference"`

	ToaPath       string `yaml:"toa_path,omitempty"`
	TimestampPath string `yaml:"timestamp_path,omitempty"`
	SequencePath  string `yaml:"sequence_path,omitempty"`
}

// Eye is the egocentric glasses camera. It is optional and rides its own
// store file.
type Eye struct {
	UniqueID      string `yaml:"unique_id"`
	VideoFile     string `yaml:"video_file"`
	Store         string `yaml:"store"`
	ToaPath       string `yaml:"toa_path"`
	TimestampPath string `yaml:"timestamp_path"`
	SequencePath  string `yaml:"sequence_path"`
}

// Skeleton is the motion-capture pose stream.
type Skeleton struct {
	UniqueID       string `yaml:"unique_id"`
	Store          string `yaml:"store"`
	PositionPath   string `yaml:"position_path"`
	PosCounterPath string `yaml:"pos_counter_path"`
	TimestampPath  string `yaml:"timestamp_path"`
	RefCounterPath string `yaml:"ref_counter_path"`
}

// IMU is one inertial stream (accelerometer, gyroscope or magnetometer).
type IMU struct {
	UniqueID        string `yaml:"unique_id"`
	SensorType      string `yaml:"sensor_type"`
	Store           string `yaml:"store"`
	DataPath        string `yaml:"data_path"`
	DataCounterPath string `yaml:"data_counter_path"`
	TimestampPath   string `yaml:"timestamp_path"`
	RefCounterPath  string `yaml:"ref_counter_path"`
}

// LinePlot is a scalar multi-channel signal, e.g. insole forces.
type LinePlot struct {
	UniqueID      string   `yaml:"unique_id"`
	Store         string   `yaml:"store"`
	TimestampPath string   `yaml:"timestamp_path"`
	ChannelPaths  []string `yaml:"channel_paths"`
	ChannelNames  []string `yaml:"channel_names,omitempty"`
	YUnits        string   `yaml:"y_units,omitempty"`
}

// Load reads a YAML trial configuration, fills defaults, resolves file paths
// against trialDir and validates the result.
func Load(path, trialDir string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.resolve(trialDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	if c.PrefetchWindowS == 0 {
		c.PrefetchWindowS = 10
	}
	for i := range c.Cameras {
		cam := &c.Cameras[i]
		if cam.ToaPath == "" {
			cam.ToaPath = fmt.Sprintf("/cameras/%s/toa_s", cam.UniqueID)
		}
		if cam.TimestampPath == "" {
			cam.TimestampPath = fmt.Sprintf("/cameras/%s/frame_timestamp", cam.UniqueID)
		}
		if cam.SequencePath == "" {
			cam.SequencePath = fmt.Sprintf("/cameras/%s/frame_sequence_id", cam.UniqueID)
		}
	}
	if c.Eye != nil && c.Eye.UniqueID == "" {
		c.Eye.UniqueID = "eye_world"
	}
	if c.Skeleton != nil && c.Skeleton.UniqueID == "" {
		c.Skeleton.UniqueID = "skeleton_mvn"
	}
}

// resolve joins relative video and store paths onto the trial directory.
func (c *Config) resolve(trialDir string) {
	if trialDir == "" {
		return
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(trialDir, p)
	}
	c.CamerasStore = join(c.CamerasStore)
	for i := range c.Cameras {
		c.Cameras[i].VideoFile = join(c.Cameras[i].VideoFile)
	}
	if c.Eye != nil {
		c.Eye.VideoFile = join(c.Eye.VideoFile)
		c.Eye.Store = join(c.Eye.Store)
	}
	if c.Skeleton != nil {
		c.Skeleton.Store = join(c.Skeleton.Store)
	}
	for i := range c.IMUs {
		c.IMUs[i].Store = join(c.IMUs[i].Store)
	}
	for i := range c.LinePlots {
		c.LinePlots[i].Store = join(c.LinePlots[i].Store)
	}
}

func (c *Config) Validate() error {
	if len(c.Cameras) == 0 {
		return errors.New("at least one camera is required")
	}
	if c.CamerasStore == "" {
		return errors.New("cameras_store is required")
	}
	if c.PrefetchWindowS <= 0 {
		return errors.New("prefetch_window_s must be > 0")
	}

	refs := 0
	seen := make(map[string]bool, len(c.Cameras))
	for _, cam := range c.Cameras {
		if cam.UniqueID == "" {
			return errors.New("camera unique_id is empty")
		}
		if seen[cam.UniqueID] {
			return fmt.Errorf("duplicate camera unique_id %q", cam.UniqueID)
		}
		seen[cam.UniqueID] = true
		if cam.VideoFile == "" {
			return fmt.Errorf("camera %s: video_file is empty", cam.UniqueID)
		}
		if cam.IsReference {
			refs++
		}
	}
	switch {
	case refs == 0:
		return errors.New("no reference camera: exactly one camera must set is_reference")
	case refs > 1:
		return fmt.Errorf("%d reference cameras: exactly one camera must set is_reference", refs)
	}

	if c.Eye != nil {
		if c.Eye.VideoFile == "" || c.Eye.Store == "" {
			return errors.New("eye: video_file and store are required")
		}
		if c.Eye.ToaPath == "" || c.Eye.TimestampPath == "" || c.Eye.SequencePath == "" {
			return errors.New("eye: toa_path, timestamp_path and sequence_path are required")
		}
	}
	if s := c.Skeleton; s != nil {
		if s.Store == "" || s.PositionPath == "" || s.PosCounterPath == "" || s.TimestampPath == "" || s.RefCounterPath == "" {
			return errors.New("skeleton: store and all series paths are required")
		}
	}
	for _, m := range c.IMUs {
		if m.UniqueID == "" {
			return errors.New("imu unique_id is empty")
		}
		if m.Store == "" || m.DataPath == "" || m.DataCounterPath == "" || m.TimestampPath == "" || m.RefCounterPath == "" {
			return fmt.Errorf("imu %s: store and all series paths are required", m.UniqueID)
		}
	}
	for _, p := range c.LinePlots {
		if p.UniqueID == "" {
			return errors.New("line plot unique_id is empty")
		}
		if p.Store == "" || p.TimestampPath == "" || len(p.ChannelPaths) == 0 {
			return fmt.Errorf("line plot %s: store, timestamp_path and channel_paths are required", p.UniqueID)
		}
		if len(p.ChannelNames) != 0 && len(p.ChannelNames) != len(p.ChannelPaths) {
			return fmt.Errorf("line plot %s: %d channel names for %d channels", p.UniqueID, len(p.ChannelNames), len(p.ChannelPaths))
		}
	}
	return nil
}
