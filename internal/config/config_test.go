package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const trialYAML = `
hwaccel: vaapi
cameras_store: cameras.json
cameras:
  - unique_id: "40478064"
    video_file: cameras_40478064.mkv
    is_reference: true
  - unique_id: "40549960"
    video_file: cameras_40549960.mkv
skeleton:
  store: mvn.json
  position_path: /mvn-analyze/xsens-pose/position
  pos_counter_path: /mvn-analyze/xsens-pose/counter
  timestamp_path: /mvn-analyze/xsens-time/timestamp_s
  ref_counter_path: /mvn-analyze/xsens-time/counter
imus:
  - unique_id: imu_accelerometer
    sensor_type: accelerometer
    store: mvn.json
    data_path: /mvn-analyze/xsens-motion-trackers/acceleration
    data_counter_path: /mvn-analyze/xsens-motion-trackers/counter
    timestamp_path: /mvn-analyze/xsens-time/timestamp_s
    ref_counter_path: /mvn-analyze/xsens-time/counter
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, trialYAML)

	cfg, err := Load(path, "/data/trial_1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.FFprobePath != "ffprobe" {
		t.Fatalf("tool defaults not applied: %q %q", cfg.FFmpegPath, cfg.FFprobePath)
	}
	if cfg.PrefetchWindowS != 10 {
		t.Fatalf("prefetch window default = %v", cfg.PrefetchWindowS)
	}
	if got := cfg.CamerasStore; got != filepath.Join("/data/trial_1", "cameras.json") {
		t.Fatalf("cameras store not resolved: %q", got)
	}
	if got := cfg.Cameras[0].VideoFile; got != filepath.Join("/data/trial_1", "cameras_40478064.mkv") {
		t.Fatalf("video file not resolved: %q", got)
	}
	if got := cfg.Cameras[1].ToaPath; got != "/cameras/40549960/toa_s" {
		t.Fatalf("toa path default = %q", got)
	}
	if cfg.Skeleton.UniqueID != "skeleton_mvn" {
		t.Fatalf("skeleton id default = %q", cfg.Skeleton.UniqueID)
	}
	if got := cfg.IMUs[0].Store; got != filepath.Join("/data/trial_1", "mvn.json") {
		t.Fatalf("imu store not resolved: %q", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct {
		mutate  func(body string) string
		wantErr string
	}{
		"no cameras": {
			mutate: func(body string) string {
				return "cameras_store: cameras.json\ncameras: []\n"
			},
			wantErr: "at least one camera",
		},
		"no reference": {
			mutate: func(body string) string {
				return strings.Replace(body, "is_reference: true", "is_reference: false", 1)
			},
			wantErr: "no reference camera",
		},
		"two references": {
			mutate: func(body string) string {
				return strings.Replace(body, "video_file: cameras_40549960.mkv",
					"video_file: cameras_40549960.mkv\n    is_reference: true", 1)
			},
			wantErr: "2 reference cameras",
		},
		"duplicate id": {
			mutate: func(body string) string {
				return strings.Replace(body, `unique_id: "40549960"`, `unique_id: "40478064"`, 1)
			},
			wantErr: "duplicate camera unique_id",
		},
		"skeleton missing path": {
			mutate: func(body string) string {
				return strings.Replace(body, "  position_path: /mvn-analyze/xsens-pose/position\n", "", 1)
			},
			wantErr: "skeleton",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, tc.mutate(trialYAML))
			_, err := Load(path, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_AbsolutePathsKept(t *testing.T) {
	body := strings.Replace(trialYAML, "cameras_store: cameras.json", "cameras_store: /elsewhere/cameras.json", 1)
	path := writeConfig(t, body)

	cfg, err := Load(path, "/data/trial_1")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CamerasStore != "/elsewhere/cameras.json" {
		t.Fatalf("absolute store path rewritten: %q", cfg.CamerasStore)
	}
}
