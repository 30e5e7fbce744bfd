package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

// NodeSettings are the settings of an lcbclock node.
type NodeSettings struct {
	NodeID       event.NodeID
	ClockID      event.ID
	StartTime    int64 // 0: wall-clock now
	Rate         clock.Rate
	Running      bool
	StorePath    string // empty: no persistence
	LogLevel     slog.Level
	AlarmPeriod  int64 // clock seconds between periodic alarms, 0 disables
	SyncInterval time.Duration
}

// DefaultNodeSettings returns the settings used for missing keys.
func DefaultNodeSettings() NodeSettings {
	return NodeSettings{
		ClockID:      clock.DefaultFastClock,
		Rate:         clock.RateRealTime,
		Running:      true,
		LogLevel:     slog.LevelInfo,
		SyncInterval: time.Minute,
	}
}

// LoadNodeSettings reads node settings from cfg. Missing keys keep their
// defaults; malformed values that cannot be defaulted return an error.
func LoadNodeSettings(cfg Config) (NodeSettings, error) {
	s := DefaultNodeSettings()
	s.NodeID = event.NodeID(cfg.Uint64("node_id", uint64(s.NodeID)))
	if s.NodeID>>48 != 0 {
		return NodeSettings{}, fmt.Errorf("node_id %#x exceeds 48 bits", uint64(s.NodeID))
	}

	s.ClockID = event.ID(cfg.Uint64("clock.id", uint64(s.ClockID)))
	if uint64(s.ClockID)&clock.EventMask != 0 {
		return NodeSettings{}, fmt.Errorf("clock id %s is not aligned to a clock block", s.ClockID)
	}

	s.StartTime = cfg.Time("clock.start", s.StartTime)
	s.Rate = clock.NewRate(cfg.Float("clock.rate", s.Rate.Float()))
	s.Running = cfg.Bool("clock.running", s.Running)
	s.StorePath = cfg.String("store", s.StorePath)
	s.SyncInterval = cfg.Duration("sync_interval", s.SyncInterval)

	if cfg.Has("alarm_period") {
		d := cfg.Duration("alarm_period", -1)
		if d < 0 {
			return NodeSettings{}, fmt.Errorf("invalid alarm_period %v", cfg.Any("alarm_period", nil))
		}
		s.AlarmPeriod = int64(d / time.Second)
	}

	level, err := ParseLevel(cfg.String("log_level", "info"))
	if err != nil {
		return NodeSettings{}, err
	}
	s.LogLevel = level
	return s, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
