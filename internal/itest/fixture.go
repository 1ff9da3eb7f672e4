//go:build integration

package itest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate go.mod")
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()
	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

// makeTestVideo synthesizes a tiny mkv with a known frame count via lavfi.
func makeTestVideo(t *testing.T, path string, seconds, fps int) {
	t.Helper()
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=size=320x240:rate=%d:duration=%d", fps, seconds),
		"-pix_fmt", "yuv420p",
		path,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

// writeTrialFixture lays out a single-camera trial: video, array store and
// config. Returns the trial directory.
func writeTrialFixture(t *testing.T, seconds, fps int) string {
	t.Helper()
	dir := t.TempDir()
	makeTestVideo(t, filepath.Join(dir, "cam.mkv"), seconds, fps)

	n := seconds * fps
	toas := make([]float64, n)
	fts := make([]float64, n)
	seqs := make([]int64, n)
	for i := 0; i < n; i++ {
		toas[i] = float64(i) / float64(fps)
		fts[i] = toas[i]
		seqs[i] = int64(i)
	}
	store := map[string]any{
		"/cameras/cam/toa_s":             toas,
		"/cameras/cam/frame_timestamp":   fts,
		"/cameras/cam/frame_sequence_id": seqs,
	}
	b, err := json.Marshal(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cameras.json"), b, 0o644); err != nil {
		t.Fatal(err)
	}

	trial := `cameras_store: cameras.json
prefetch_window_s: 1
cameras:
  - unique_id: cam
    video_file: cam.mkv
    is_reference: true
`
	if err := os.WriteFile(filepath.Join(dir, "trial.yaml"), []byte(trial), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}
