package config

import (
	"fmt"
	"time"

	"github.com/lixenwraith/panelkit/engine"
	"github.com/lixenwraith/panelkit/perf"
)

// Config is the full panel configuration. Sections map onto the
// subsystem configs; conversion methods hand each subsystem its slice
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Quality QualityConfig `mapstructure:"quality" yaml:"quality"`
	Events  EventsConfig  `mapstructure:"events" yaml:"events"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EngineConfig drives the frame scheduler
type EngineConfig struct {
	TargetFPS       int     `mapstructure:"target_fps" yaml:"target_fps"`
	FrameSkipFactor float64 `mapstructure:"frame_skip_factor" yaml:"frame_skip_factor"`
	MergeThreshold  int     `mapstructure:"merge_threshold" yaml:"merge_threshold"`
}

// MonitorConfig drives performance sampling and warning thresholds
type MonitorConfig struct {
	IntervalSeconds  int     `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	HistorySize      int     `mapstructure:"history_size" yaml:"history_size"`
	MinFPS           float64 `mapstructure:"min_fps" yaml:"min_fps"`
	MaxCPUPercent    float64 `mapstructure:"max_cpu_percent" yaml:"max_cpu_percent"`
	MaxMemoryPercent float64 `mapstructure:"max_memory_percent" yaml:"max_memory_percent"`
	MaxTemperature   float64 `mapstructure:"max_temperature" yaml:"max_temperature"`
	MaxFrameDrops    uint64  `mapstructure:"max_frame_drops" yaml:"max_frame_drops"`
}

// QualityConfig drives the adaptive quality controller
type QualityConfig struct {
	Adaptive        bool          `mapstructure:"adaptive" yaml:"adaptive"`
	InitialLevel    string        `mapstructure:"initial_level" yaml:"initial_level"`
	TargetCPU       float64       `mapstructure:"target_cpu" yaml:"target_cpu"`
	CooldownSeconds int           `mapstructure:"cooldown_seconds" yaml:"cooldown_seconds"`
	Scoring         ScoringConfig `mapstructure:"scoring" yaml:"scoring"`
}

// ScoringConfig exposes the controller's score cutoffs so a deployment
// can retune the ladder per panel without a rebuild
type ScoringConfig struct {
	FPSGoodRatio   float64 `mapstructure:"fps_good_ratio" yaml:"fps_good_ratio"`
	FPSOKRatio     float64 `mapstructure:"fps_ok_ratio" yaml:"fps_ok_ratio"`
	FPSBadRatio    float64 `mapstructure:"fps_bad_ratio" yaml:"fps_bad_ratio"`
	CPUHighRatio   float64 `mapstructure:"cpu_high_ratio" yaml:"cpu_high_ratio"`
	CPUBadRatio    float64 `mapstructure:"cpu_bad_ratio" yaml:"cpu_bad_ratio"`
	CPULowRatio    float64 `mapstructure:"cpu_low_ratio" yaml:"cpu_low_ratio"`
	MemHighPercent float64 `mapstructure:"mem_high_percent" yaml:"mem_high_percent"`
	MemLowPercent  float64 `mapstructure:"mem_low_percent" yaml:"mem_low_percent"`
	DropTwo        int     `mapstructure:"drop_two" yaml:"drop_two"`
	DropOne        int     `mapstructure:"drop_one" yaml:"drop_one"`
	RaiseOne       int     `mapstructure:"raise_one" yaml:"raise_one"`
}

// EventsConfig drives the dispatcher's recording facility
type EventsConfig struct {
	RecordCapacity int `mapstructure:"record_capacity" yaml:"record_capacity"`
}

// LoggingConfig selects log destination and verbosity
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Default returns the configuration for a 30 fps embedded panel
func Default() Config {
	return Config{
		Engine: EngineConfig{
			TargetFPS:       30,
			FrameSkipFactor: 1.5,
			MergeThreshold:  2,
		},
		Monitor: MonitorConfig{
			IntervalSeconds:  2,
			HistorySize:      60,
			MinFPS:           20,
			MaxCPUPercent:    85,
			MaxMemoryPercent: 85,
			MaxTemperature:   75,
			MaxFrameDrops:    10,
		},
		Quality: QualityConfig{
			Adaptive:        true,
			InitialLevel:    "high",
			TargetCPU:       70,
			CooldownSeconds: 10,
			Scoring:         defaultScoring(),
		},
		Events: EventsConfig{
			RecordCapacity: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks cross-field constraints after load
func (c Config) Validate() error {
	if c.Engine.TargetFPS < 1 || c.Engine.TargetFPS > 240 {
		return fmt.Errorf("engine.target_fps %d out of range [1,240]", c.Engine.TargetFPS)
	}
	if c.Engine.FrameSkipFactor < 1.0 {
		return fmt.Errorf("engine.frame_skip_factor %.2f must be at least 1.0", c.Engine.FrameSkipFactor)
	}
	if c.Monitor.IntervalSeconds < 1 {
		return fmt.Errorf("monitor.interval_seconds %d must be at least 1", c.Monitor.IntervalSeconds)
	}
	if c.Monitor.HistorySize < 1 {
		return fmt.Errorf("monitor.history_size %d must be at least 1", c.Monitor.HistorySize)
	}
	if _, err := parseLevel(c.Quality.InitialLevel); err != nil {
		return err
	}
	if c.Quality.TargetCPU <= 0 || c.Quality.TargetCPU > 100 {
		return fmt.Errorf("quality.target_cpu %.1f out of range (0,100]", c.Quality.TargetCPU)
	}
	s := c.Quality.Scoring
	if s.FPSBadRatio <= 0 || s.FPSBadRatio >= s.FPSOKRatio || s.FPSOKRatio > s.FPSGoodRatio {
		return fmt.Errorf("quality.scoring fps ratios %.2f/%.2f/%.2f must satisfy 0 < bad < ok <= good",
			s.FPSBadRatio, s.FPSOKRatio, s.FPSGoodRatio)
	}
	if s.CPULowRatio <= 0 || s.CPULowRatio >= s.CPUHighRatio || s.CPUHighRatio > s.CPUBadRatio {
		return fmt.Errorf("quality.scoring cpu ratios %.2f/%.2f/%.2f must satisfy 0 < low < high <= bad",
			s.CPULowRatio, s.CPUHighRatio, s.CPUBadRatio)
	}
	if s.MemLowPercent <= 0 || s.MemLowPercent >= s.MemHighPercent || s.MemHighPercent > 100 {
		return fmt.Errorf("quality.scoring memory cutoffs %.1f/%.1f must satisfy 0 < low < high <= 100",
			s.MemLowPercent, s.MemHighPercent)
	}
	if s.DropTwo > s.DropOne || s.DropOne >= s.RaiseOne {
		return fmt.Errorf("quality.scoring score cutoffs %d/%d/%d must satisfy drop_two <= drop_one < raise_one",
			s.DropTwo, s.DropOne, s.RaiseOne)
	}
	if c.Events.RecordCapacity < 1 {
		return fmt.Errorf("events.record_capacity %d must be at least 1", c.Events.RecordCapacity)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func parseLevel(s string) (perf.Level, error) {
	switch s {
	case "high":
		return perf.LevelHigh, nil
	case "balanced":
		return perf.LevelBalanced, nil
	case "fast":
		return perf.LevelFast, nil
	case "minimal":
		return perf.LevelMinimal, nil
	default:
		return 0, fmt.Errorf("quality.initial_level %q must be one of high, balanced, fast, minimal", s)
	}
}

// SchedulerConfig converts the engine section
func (c Config) SchedulerConfig() engine.Config {
	return engine.Config{
		TargetFPS:         float64(c.Engine.TargetFPS),
		FrameSkipFactor:   c.Engine.FrameSkipFactor,
		MergeThreshold:    c.Engine.MergeThreshold,
		PausePollInterval: engine.DefaultConfig().PausePollInterval,
	}
}

// PerfMonitorConfig converts the monitor section
func (c Config) PerfMonitorConfig() perf.MonitorConfig {
	return perf.MonitorConfig{
		Interval:    time.Duration(c.Monitor.IntervalSeconds) * time.Second,
		HistorySize: c.Monitor.HistorySize,
		TargetFPS:   float64(c.Engine.TargetFPS),
		Thresholds: perf.Thresholds{
			MinFPS:           c.Monitor.MinFPS,
			MaxCPUPercent:    c.Monitor.MaxCPUPercent,
			MaxMemoryPercent: c.Monitor.MaxMemoryPercent,
			MaxTemperature:   c.Monitor.MaxTemperature,
			MaxFrameDrops:    c.Monitor.MaxFrameDrops,
		},
	}
}

// ControllerConfig converts the quality section. The level string is
// validated before conversion, so parse failures fall back to high
func (c Config) ControllerConfig() perf.ControllerConfig {
	level, err := parseLevel(c.Quality.InitialLevel)
	if err != nil {
		level = perf.LevelHigh
	}
	return perf.ControllerConfig{
		TargetFPS:    float64(c.Engine.TargetFPS),
		TargetCPU:    c.Quality.TargetCPU,
		Cooldown:     time.Duration(c.Quality.CooldownSeconds) * time.Second,
		Scoring:      c.Quality.Scoring.scoreConfig(),
		InitialLevel: level,
	}
}

func defaultScoring() ScoringConfig {
	s := perf.DefaultScoreConfig()
	return ScoringConfig{
		FPSGoodRatio:   s.FPSGoodRatio,
		FPSOKRatio:     s.FPSOKRatio,
		FPSBadRatio:    s.FPSBadRatio,
		CPUHighRatio:   s.CPUHighRatio,
		CPUBadRatio:    s.CPUBadRatio,
		CPULowRatio:    s.CPULowRatio,
		MemHighPercent: s.MemHighPercent,
		MemLowPercent:  s.MemLowPercent,
		DropTwo:        s.DropTwo,
		DropOne:        s.DropOne,
		RaiseOne:       s.RaiseOne,
	}
}

func (s ScoringConfig) scoreConfig() perf.ScoreConfig {
	return perf.ScoreConfig{
		FPSGoodRatio:   s.FPSGoodRatio,
		FPSOKRatio:     s.FPSOKRatio,
		FPSBadRatio:    s.FPSBadRatio,
		CPUHighRatio:   s.CPUHighRatio,
		CPUBadRatio:    s.CPUBadRatio,
		CPULowRatio:    s.CPULowRatio,
		MemHighPercent: s.MemHighPercent,
		MemLowPercent:  s.MemLowPercent,
		DropTwo:        s.DropTwo,
		DropOne:        s.DropOne,
		RaiseOne:       s.RaiseOne,
	}
}
