package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/emedialab/sioviz/internal/types"
)

// eoi is the JPEG End of Image marker. The decoder emits a continuous
// image2pipe buffer of JPEG frames; frames are recovered by splitting on it.
var eoi = []byte{0xff, 0xd9}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	hwaccel string
}

func New(ffmpegPath, ffprobePath, hwaccel string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, hwaccel: hwaccel}
}

func (a *Adapter) Probe(ctx context.Context, videoPath string) (types.VideoProperties, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.VideoProperties{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}

	var probe struct {
		Streams []struct {
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return types.VideoProperties{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return types.VideoProperties{}, fmt.Errorf("no video stream in %s", videoPath)
	}

	s := probe.Streams[0]
	fps, err := parseFrameRate(s.RFrameRate)
	if err != nil {
		return types.VideoProperties{}, err
	}
	durSec, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return types.VideoProperties{}, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}

	return types.VideoProperties{
		Width:       s.Width,
		Height:      s.Height,
		FPS:         fps,
		TotalFrames: int(durSec*fps + 0.5),
	}, nil
}

// DecodeBatch seeks by timestamp (much faster than decoding up to a frame
// index) and pulls n consecutive JPEG frames through image2pipe. The fps
// must match the stream's real framerate so the seek lands on startFrame to
// within one frame; callers get it from Probe.
func (a *Adapter) DecodeBatch(ctx context.Context, videoPath string, fps float64, startFrame, n int) (map[int][]byte, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid fps %v", fps)
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", n)
	}

	args := []string{"-v", "error"}
	if a.hwaccel != "" {
		args = append(args, "-hwaccel", a.hwaccel)
	}
	args = append(args,
		"-ss", formatSeconds(float64(startFrame)/fps),
		"-i", videoPath,
		"-vframes", strconv.Itoa(n),
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"pipe:",
	)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	buf, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode batch: %w\n%s", err, stderr.String())
	}

	frames := splitJPEGStream(buf)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames decoded at %d from %s", types.ErrDecodeFailure, startFrame, videoPath)
	}

	out := make(map[int][]byte, len(frames))
	for i, frame := range frames {
		out[startFrame+i] = frame
	}
	return out, nil
}

// splitJPEGStream cuts a concatenated JPEG buffer at each End of Image
// marker, reattaching the marker to every frame. A trailing partial frame is
// dropped.
func splitJPEGStream(buf []byte) [][]byte {
	parts := bytes.Split(buf, eoi)
	if len(parts) == 0 {
		return nil
	}
	frames := make([][]byte, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		frame := make([]byte, 0, len(p)+len(eoi))
		frame = append(frame, p...)
		frame = append(frame, eoi...)
		frames = append(frames, frame)
	}
	return frames
}

func parseFrameRate(s string) (float64, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, fmt.Errorf("parse frame rate %q", s)
	}
	nf, err1 := strconv.ParseFloat(num, 64)
	df, err2 := strconv.ParseFloat(den, 64)
	if err := errors.Join(err1, err2); err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if df == 0 {
		return 0, fmt.Errorf("zero denominator in frame rate %q", s)
	}
	return nf / df, nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 6, 64)
}
