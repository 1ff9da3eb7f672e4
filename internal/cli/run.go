package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/emedialab/sioviz/internal/config"
	"github.com/emedialab/sioviz/internal/ports/adapters/ffmpeg"
	"github.com/emedialab/sioviz/internal/session"
)

func run(cmd *cobra.Command, trialDir string) error {
	cfgName, _ := cmd.Flags().GetString("config")
	tick, _ := cmd.Flags().GetInt("tick")
	verbose, _ := cmd.Flags().GetBool("verbose")
	window, _ := cmd.Flags().GetFloat64("window")

	absDir, err := filepath.Abs(trialDir)
	if err != nil {
		return err
	}

	cfgPath := cfgName
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(absDir, cfgName)
	}
	cfg, err := config.Load(cfgPath, absDir)
	if err != nil {
		return err
	}

	cfg.FFmpegPath = getenvDefault("SIOVIZ_FFMPEG", cfg.FFmpegPath)
	cfg.FFprobePath = getenvDefault("SIOVIZ_FFPROBE", cfg.FFprobePath)
	cfg.Hwaccel = getenvDefault("SIOVIZ_HWACCEL", cfg.Hwaccel)
	if window > 0 {
		cfg.PrefetchWindowS = window
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	deps := session.Deps{
		Video: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, cfg.Hwaccel),
	}
	if verbose {
		deps.Logf = func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
		}
	}

	s, err := session.New(ctx, cfg, deps)
	if err != nil {
		return err
	}
	defer s.Stop()

	tl := s.Timeline()
	cmd.Printf("session %s: %d cameras, %d ticks\n", s.RunID(), len(s.Cameras()), s.Ticks())
	cmd.Printf("trial window: [%.3f, %.3f]\n", tl.StartTrialToaS, tl.EndTrialToaS)

	s.SetTick(tick)
	cmd.Printf("tick %d: sync timestamp %.5f\n", s.Tick(), s.SyncTimestamp())
	for _, id := range s.ComponentIDs() {
		status, err := s.Status(id)
		if err != nil {
			return err
		}
		cmd.Printf("  %-20s %s\n", id, status)
	}
	return nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
