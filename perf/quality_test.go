package perf

import (
	"testing"
	"time"
)

func newTestController(cfg ControllerConfig) (*Controller, *time.Time) {
	c := NewController(cfg)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestControllerDegradesOnSustainedOverload(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	// Half the target frame rate with CPU 30% over budget: a two-rung drop
	m := Metrics{FPS: 15, CPUPercent: 91, HasCPU: true}

	level, changed := c.Analyze(m)
	if !changed {
		t.Fatal("expected level change")
	}
	if level != LevelFast {
		t.Errorf("level = %v, want %v", level, LevelFast)
	}
}

func TestControllerSingleStepDrop(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	// fps ratio 0.8 scores -1, nothing else contributes
	m := Metrics{FPS: 24}

	level, changed := c.Analyze(m)
	if !changed || level != LevelBalanced {
		t.Errorf("level = %v changed = %v, want %v true", level, changed, LevelBalanced)
	}
}

func TestControllerRaisesWhenHealthy(t *testing.T) {
	c, clock := newTestController(ControllerConfig{
		TargetFPS:    30,
		TargetCPU:    70,
		InitialLevel: LevelFast,
	})

	m := Metrics{FPS: 30, CPUPercent: 35, HasCPU: true, MemoryPercent: 40}

	level, changed := c.Analyze(m)
	if !changed || level != LevelBalanced {
		t.Fatalf("level = %v changed = %v, want %v true", level, changed, LevelBalanced)
	}

	*clock = clock.Add(time.Minute)
	level, changed = c.Analyze(m)
	if !changed || level != LevelHigh {
		t.Errorf("level = %v changed = %v, want %v true", level, changed, LevelHigh)
	}
}

func TestControllerCooldownBlocksChanges(t *testing.T) {
	c, clock := newTestController(ControllerConfig{
		TargetFPS: 30,
		TargetCPU: 70,
		Cooldown:  10 * time.Second,
	})

	bad := Metrics{FPS: 15, CPUPercent: 91, HasCPU: true}

	if _, changed := c.Analyze(bad); !changed {
		t.Fatal("first analysis should change level")
	}

	// Still inside the window, scoring is skipped entirely
	*clock = clock.Add(5 * time.Second)
	if level, changed := c.Analyze(bad); changed {
		t.Errorf("level changed to %v inside cooldown", level)
	}

	*clock = clock.Add(6 * time.Second)
	if _, changed := c.Analyze(bad); !changed {
		t.Error("expected change after cooldown elapsed")
	}
}

func TestControllerClampsAtMinimal(t *testing.T) {
	c, clock := newTestController(ControllerConfig{
		TargetFPS:    30,
		TargetCPU:    70,
		InitialLevel: LevelMinimal,
	})

	*clock = clock.Add(time.Minute)
	m := Metrics{FPS: 5, CPUPercent: 100, HasCPU: true, MemoryPercent: 95}
	if level, changed := c.Analyze(m); changed || level != LevelMinimal {
		t.Errorf("level = %v changed = %v, want minimal unchanged", level, changed)
	}
}

func TestControllerNoChangeOnNeutralScore(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	// fps ratio 0.9 scores +1: between the drop and raise cutoffs
	m := Metrics{FPS: 27}
	if level, changed := c.Analyze(m); changed {
		t.Errorf("unexpected change to %v on neutral score", level)
	}
}

func TestControllerForceLevel(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	var gotLevel Level
	var gotSettings Settings
	calls := 0
	c.Subscribe(func(l Level, s Settings) {
		gotLevel = l
		gotSettings = s
		calls++
	})

	c.ForceLevel(LevelMinimal)
	if c.Level() != LevelMinimal {
		t.Errorf("Level() = %v, want %v", c.Level(), LevelMinimal)
	}
	if calls != 1 || gotLevel != LevelMinimal {
		t.Errorf("callback calls = %d level = %v", calls, gotLevel)
	}
	if gotSettings.UpdateFrequency != 10 || !gotSettings.DirtyRegionOptimization {
		t.Errorf("unexpected minimal settings: %+v", gotSettings)
	}

	// Re-forcing the same level is a no-op
	c.ForceLevel(LevelMinimal)
	if calls != 1 {
		t.Errorf("callback fired %d times on redundant force", calls)
	}
}

func TestControllerForceDegradeBypassesCooldown(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	c.ForceDegrade()
	if c.Level() != LevelBalanced {
		t.Fatalf("Level() = %v, want %v", c.Level(), LevelBalanced)
	}
	c.ForceDegrade()
	c.ForceDegrade()
	c.ForceDegrade()
	if c.Level() != LevelMinimal {
		t.Errorf("Level() = %v, want clamp at %v", c.Level(), LevelMinimal)
	}
}

func TestControllerSubscriberMayReenter(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	// Subscribers read the controller back during notification; this
	// must not deadlock
	var seen Level
	c.Subscribe(func(l Level, _ Settings) {
		seen = c.Level()
		if got := c.Settings(); got != SettingsFor(l) {
			t.Errorf("Settings() = %+v inside callback, want %+v", got, SettingsFor(l))
		}
	})

	done := make(chan struct{})
	go func() {
		c.ForceLevel(LevelFast)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ForceLevel deadlocked with re-entrant subscriber")
	}
	if seen != LevelFast {
		t.Errorf("level observed in callback = %v, want %v", seen, LevelFast)
	}
}

func TestScoreComponents(t *testing.T) {
	c, _ := newTestController(ControllerConfig{TargetFPS: 30, TargetCPU: 70})

	tests := []struct {
		name string
		m    Metrics
		want int
	}{
		{"ideal", Metrics{FPS: 30, CPUPercent: 35, HasCPU: true, MemoryPercent: 40}, 4},
		{"fps only good", Metrics{FPS: 29}, 2},
		{"fps ok", Metrics{FPS: 26}, 1},
		{"fps poor", Metrics{FPS: 20}, -1},
		{"fps bad", Metrics{FPS: 15}, -2},
		{"cpu over budget", Metrics{FPS: 29, CPUPercent: 75, HasCPU: true}, 1},
		{"cpu far over budget", Metrics{FPS: 29, CPUPercent: 91, HasCPU: true}, 0},
		{"memory pressure", Metrics{FPS: 29, MemoryPercent: 90}, 1},
		{"no cpu reading ignored", Metrics{FPS: 29, CPUPercent: 99}, 2},
		{"zero fps skipped", Metrics{MemoryPercent: 40}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Score(tt.m); got != tt.want {
				t.Errorf("Score(%+v) = %d, want %d", tt.m, got, tt.want)
			}
		})
	}
}

func TestSettingsLadderMonotonic(t *testing.T) {
	prev := SettingsFor(LevelHigh)
	for l := LevelBalanced; l <= LevelMinimal; l++ {
		s := SettingsFor(l)
		if s.UpdateFrequency > prev.UpdateFrequency {
			t.Errorf("%v update frequency %v exceeds %v", l, s.UpdateFrequency, prev.UpdateFrequency)
		}
		if s.TextureQuality > prev.TextureQuality {
			t.Errorf("%v texture quality %v exceeds %v", l, s.TextureQuality, prev.TextureQuality)
		}
		prev = s
	}

	if !SettingsFor(LevelFast).DirtyRegionOptimization {
		t.Error("fast level should coalesce dirty regions")
	}
	if SettingsFor(LevelHigh).DirtyRegionOptimization {
		t.Error("high level should present regions unmerged")
	}
}
