//go:build integration

package itest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/emedialab/sioviz/internal/ports/adapters/ffmpeg"
)

func TestProbeAndDecodeBatch(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "probe.mkv")
	makeTestVideo(t, video, 2, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a := ffmpeg.New("ffmpeg", "ffprobe", "")
	props, err := a.Probe(ctx, video)
	if err != nil {
		t.Fatal(err)
	}
	if props.Width != 320 || props.Height != 240 {
		t.Fatalf("dimensions = %dx%d, want 320x240", props.Width, props.Height)
	}
	if props.FPS != 10 {
		t.Fatalf("fps = %v, want 10", props.FPS)
	}
	if props.TotalFrames != 20 {
		t.Fatalf("total frames = %d, want 20", props.TotalFrames)
	}

	frames, err := a.DecodeBatch(ctx, video, props.FPS, 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 4 {
		t.Fatalf("decoded %d frames, want 4", len(frames))
	}
	soi := []byte{0xff, 0xd8}
	eoi := []byte{0xff, 0xd9}
	for i := 5; i < 9; i++ {
		buf, ok := frames[i]
		if !ok {
			t.Fatalf("frame %d missing from batch", i)
		}
		if !bytes.HasPrefix(buf, soi) || !bytes.HasSuffix(buf, eoi) {
			t.Fatalf("frame %d is not a complete JPEG (%d bytes)", i, len(buf))
		}
	}
}
