package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lixenwraith/panelkit/perf"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelkit.yaml")
	data := []byte(`engine:
  target_fps: 60
  merge_threshold: 4
quality:
  initial_level: balanced
monitor:
  min_fps: 45
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TargetFPS != 60 {
		t.Errorf("target_fps = %d, want 60", cfg.Engine.TargetFPS)
	}
	if cfg.Engine.MergeThreshold != 4 {
		t.Errorf("merge_threshold = %d, want 4", cfg.Engine.MergeThreshold)
	}
	if cfg.Quality.InitialLevel != "balanced" {
		t.Errorf("initial_level = %q, want balanced", cfg.Quality.InitialLevel)
	}
	if cfg.Monitor.MinFPS != 45 {
		t.Errorf("min_fps = %.0f, want 45", cfg.Monitor.MinFPS)
	}
	// Untouched keys keep their defaults
	if cfg.Engine.FrameSkipFactor != 1.5 {
		t.Errorf("frame_skip_factor = %.2f, want default 1.5", cfg.Engine.FrameSkipFactor)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PANELKIT_ENGINE_TARGET_FPS", "15")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TargetFPS != 15 {
		t.Errorf("target_fps = %d, want env override 15", cfg.Engine.TargetFPS)
	}
}

func TestLoadScoringOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelkit.yaml")
	data := []byte(`quality:
  scoring:
    fps_good_ratio: 0.9
    fps_ok_ratio: 0.8
    drop_two: -4
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	scoring := cfg.ControllerConfig().Scoring
	if scoring.FPSGoodRatio != 0.9 || scoring.FPSOKRatio != 0.8 {
		t.Errorf("fps cutoffs = %.2f/%.2f, want 0.9/0.8", scoring.FPSGoodRatio, scoring.FPSOKRatio)
	}
	if scoring.DropTwo != -4 {
		t.Errorf("drop_two = %d, want -4", scoring.DropTwo)
	}
	// Untouched cutoffs keep the tuned defaults
	if want := perf.DefaultScoreConfig(); scoring.CPUBadRatio != want.CPUBadRatio || scoring.RaiseOne != want.RaiseOne {
		t.Errorf("untouched cutoffs = %.2f/%d, want defaults %.2f/%d",
			scoring.CPUBadRatio, scoring.RaiseOne, want.CPUBadRatio, want.RaiseOne)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"fps out of range", "engine:\n  target_fps: 500\n"},
		{"bad level", "quality:\n  initial_level: turbo\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"skip factor below one", "engine:\n  frame_skip_factor: 0.5\n"},
		{"scoring fps ratios unordered", "quality:\n  scoring:\n    fps_ok_ratio: 0.99\n"},
		{"scoring cpu low above high", "quality:\n  scoring:\n    cpu_low_ratio: 1.1\n"},
		{"scoring drop above raise", "quality:\n  scoring:\n    drop_one: 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "panelkit.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panelkit.yaml")
	if err := os.WriteFile(path, []byte("engine: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSubsystemConversions(t *testing.T) {
	cfg := Default()
	cfg.Engine.TargetFPS = 60
	cfg.Quality.InitialLevel = "fast"
	cfg.Quality.CooldownSeconds = 30

	sched := cfg.SchedulerConfig()
	if sched.TargetFPS != 60 || sched.FrameSkipFactor != 1.5 {
		t.Errorf("scheduler config = %+v", sched)
	}

	mon := cfg.PerfMonitorConfig()
	if mon.TargetFPS != 60 {
		t.Errorf("monitor target fps = %.0f, want engine's 60", mon.TargetFPS)
	}
	if mon.Interval != 2*time.Second {
		t.Errorf("monitor interval = %v", mon.Interval)
	}
	if mon.Thresholds.MaxMemoryPercent != 85 {
		t.Errorf("memory threshold = %.0f", mon.Thresholds.MaxMemoryPercent)
	}

	ctrl := cfg.ControllerConfig()
	if ctrl.InitialLevel != perf.LevelFast {
		t.Errorf("initial level = %v, want fast", ctrl.InitialLevel)
	}
	if ctrl.Cooldown != 30*time.Second {
		t.Errorf("cooldown = %v", ctrl.Cooldown)
	}
	if ctrl.TargetFPS != 60 {
		t.Errorf("controller target fps = %.0f", ctrl.TargetFPS)
	}
}
