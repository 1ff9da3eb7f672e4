package component

import (
	"fmt"

	"github.com/emedialab/sioviz/internal/ports"
)

// LinePlotConfig names the store paths for a scalar signal modality: one
// timestamp series and one or more parallel channels (e.g. left/right
// insole force, EMG envelopes).
type LinePlotConfig struct {
	UniqueID      string
	TimestampPath string
	ChannelPaths  []string
	ChannelNames  []string
	YUnits        string
}

// LinePlot is a multi-channel scalar signal modality.
type LinePlot struct {
	base
	channelNames []string
	yUnits       string
	channels     [][]float64 // one slice per channel, each len == Len()
}

// NewLinePlot loads the signal channels, truncating each to the timestamp
// length when a channel carries extra tail samples.
func NewLinePlot(cfg LinePlotConfig, store ports.SensorStore, logf Logf) (*LinePlot, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if len(cfg.ChannelPaths) == 0 {
		return nil, fmt.Errorf("line plot %s: no channel paths", cfg.UniqueID)
	}

	toas, err := loadFloats(store, cfg.TimestampPath)
	if err != nil {
		return nil, err
	}

	n := len(toas)
	channels := make([][]float64, len(cfg.ChannelPaths))
	for i, path := range cfg.ChannelPaths {
		ch, err := loadFloats(store, path)
		if err != nil {
			return nil, err
		}
		if len(ch) < n {
			n = len(ch)
		}
		channels[i] = ch
	}
	if n != len(toas) {
		logf("line plot %s: channels shorter than timestamps, truncating to %d of %d", cfg.UniqueID, n, len(toas))
	}
	toas = toas[:n]
	for i := range channels {
		if len(channels[i]) != n {
			logf("line plot %s: channel %s truncated to %d of %d", cfg.UniqueID, cfg.ChannelPaths[i], n, len(channels[i]))
			channels[i] = channels[i][:n]
		}
	}

	b, err := newBase(cfg.UniqueID, toas)
	if err != nil {
		return nil, err
	}
	names := cfg.ChannelNames
	if len(names) != len(channels) {
		names = cfg.ChannelPaths
	}
	return &LinePlot{base: b, channelNames: names, yUnits: cfg.YUnits, channels: channels}, nil
}

func (p *LinePlot) ChannelNames() []string { return p.channelNames }

func (p *LinePlot) YUnits() string { return p.yUnits }

// ValueAt returns one channel's value at a local index, clamped into range.
func (p *LinePlot) ValueAt(channel, i int) (float64, error) {
	if channel < 0 || channel >= len(p.channels) {
		return 0, fmt.Errorf("channel %d outside %d channels", channel, len(p.channels))
	}
	return p.channels[channel][clampIndex(i, len(p.channels[channel]))], nil
}
