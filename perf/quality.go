package perf

import (
	"sync"
	"time"

	"github.com/lixenwraith/panelkit/core"
)

// Level is one rung on the discrete quality ladder, ordered from most
// expensive to cheapest rendering
type Level int

const (
	LevelHigh Level = iota
	LevelBalanced
	LevelFast
	LevelMinimal
)

// String returns the level name for logs and overlays
func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelBalanced:
		return "balanced"
	case LevelFast:
		return "fast"
	case LevelMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// Settings are the concrete rendering-cost knobs for one level.
// Content consumes them on its next update; the scheduler consumes
// DirtyRegionOptimization directly
type Settings struct {
	Sync                    string  // "vsync", "adaptive" or "off"
	Antialiasing            bool
	TextureQuality          float64 // 0..1 scale factor
	EffectQuality           float64 // 0..1 scale factor
	UpdateFrequency         float64 // content update rate in Hz
	DirtyRegionOptimization bool
}

// levelSettings maps each rung to its knobs. The ladder trades fidelity
// for headroom: lower rungs coalesce regions and slow content updates
var levelSettings = map[Level]Settings{
	LevelHigh: {
		Sync:                    "vsync",
		Antialiasing:            true,
		TextureQuality:          1.0,
		EffectQuality:           1.0,
		UpdateFrequency:         60,
		DirtyRegionOptimization: false,
	},
	LevelBalanced: {
		Sync:                    "vsync",
		Antialiasing:            true,
		TextureQuality:          0.75,
		EffectQuality:           0.5,
		UpdateFrequency:         30,
		DirtyRegionOptimization: true,
	},
	LevelFast: {
		Sync:                    "adaptive",
		Antialiasing:            false,
		TextureQuality:          0.5,
		EffectQuality:           0.25,
		UpdateFrequency:         20,
		DirtyRegionOptimization: true,
	},
	LevelMinimal: {
		Sync:                    "off",
		Antialiasing:            false,
		TextureQuality:          0.25,
		EffectQuality:           0,
		UpdateFrequency:         10,
		DirtyRegionOptimization: true,
	},
}

// SettingsFor returns the knobs for a level
func SettingsFor(l Level) Settings {
	return levelSettings[clampLevel(l)]
}

func clampLevel(l Level) Level {
	if l < LevelHigh {
		return LevelHigh
	}
	if l > LevelMinimal {
		return LevelMinimal
	}
	return l
}

// ScoreConfig holds the scoring cutoffs. The values are empirical;
// they are configuration rather than behavior so deployments can tune
// them per panel
type ScoreConfig struct {
	FPSGoodRatio float64 // fps/target at or above: +2
	FPSOKRatio   float64 // fps/target at or above: +1, below: -1
	FPSBadRatio  float64 // fps/target below: -2

	CPUHighRatio float64 // cpu/target at or above: -1
	CPUBadRatio  float64 // cpu/target at or above: -2
	CPULowRatio  float64 // cpu/target at or below: +1

	MemHighPercent float64 // memory% at or above: -1
	MemLowPercent  float64 // memory% at or below: +1

	DropTwo  int // score at or below: drop two levels
	DropOne  int // score at or below: drop one level
	RaiseOne int // score at or above: raise one level
}

// DefaultScoreConfig returns the tuned cutoffs
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		FPSGoodRatio:   0.95,
		FPSOKRatio:     0.85,
		FPSBadRatio:    0.6,
		CPUHighRatio:   1.0,
		CPUBadRatio:    1.2,
		CPULowRatio:    0.7,
		MemHighPercent: 85,
		MemLowPercent:  60,
		DropTwo:        -3,
		DropOne:        -1,
		RaiseOne:       2,
	}
}

// ControllerConfig holds adaptive-quality parameters
type ControllerConfig struct {
	TargetFPS    float64
	TargetCPU    float64 // percent considered full budget
	Cooldown     time.Duration
	Scoring      ScoreConfig
	InitialLevel Level
}

// DefaultControllerConfig returns defaults for a 30 fps panel
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TargetFPS:    30,
		TargetCPU:    70,
		Cooldown:     10 * time.Second,
		Scoring:      DefaultScoreConfig(),
		InitialLevel: LevelHigh,
	}
}

// QualityFunc receives level transitions with the new concrete settings
type QualityFunc func(level Level, settings Settings)

// Controller steps the quality level up or down from performance
// scores. Transitions are cooldown-gated and move at most two rungs
// per evaluation
type Controller struct {
	cfg ControllerConfig

	mu         sync.Mutex
	level      Level
	lastChange time.Time
	callbacks  []QualityFunc

	now func() time.Time // injectable for cooldown tests
}

// NewController creates a controller at the configured initial level
func NewController(cfg ControllerConfig) *Controller {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = DefaultControllerConfig().TargetFPS
	}
	if cfg.TargetCPU <= 0 {
		cfg.TargetCPU = DefaultControllerConfig().TargetCPU
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultControllerConfig().Cooldown
	}
	if cfg.Scoring == (ScoreConfig{}) {
		cfg.Scoring = DefaultScoreConfig()
	}

	return &Controller{
		cfg:   cfg,
		level: clampLevel(cfg.InitialLevel),
		now:   time.Now,
	}
}

// Subscribe registers a transition callback
func (c *Controller) Subscribe(fn QualityFunc) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// Level returns the current quality level
func (c *Controller) Level() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Settings returns the knobs for the current level
func (c *Controller) Settings() Settings {
	return SettingsFor(c.Level())
}

// Score computes the signed performance score for a sample.
// Negative means the panel is struggling
func (c *Controller) Score(m Metrics) int {
	s := c.cfg.Scoring
	score := 0

	if m.FPS > 0 {
		ratio := m.FPS / c.cfg.TargetFPS
		switch {
		case ratio >= s.FPSGoodRatio:
			score += 2
		case ratio >= s.FPSOKRatio:
			score++
		case ratio < s.FPSBadRatio:
			score -= 2
		default:
			score--
		}
	}

	if m.HasCPU {
		ratio := m.CPUPercent / c.cfg.TargetCPU
		switch {
		case ratio >= s.CPUBadRatio:
			score -= 2
		case ratio >= s.CPUHighRatio:
			score--
		case ratio <= s.CPULowRatio:
			score++
		}
	}

	if m.MemoryPercent >= s.MemHighPercent {
		score--
	} else if m.MemoryPercent > 0 && m.MemoryPercent <= s.MemLowPercent {
		score++
	}

	return score
}

// Analyze evaluates one sample and possibly steps the level.
// Returns the level in effect afterwards and whether it changed.
// A change within the cooldown window never happens
func (c *Controller) Analyze(m Metrics) (Level, bool) {
	c.mu.Lock()

	if !c.lastChange.IsZero() && c.now().Sub(c.lastChange) < c.cfg.Cooldown {
		level := c.level
		c.mu.Unlock()
		return level, false
	}

	score := c.Score(m)
	s := c.cfg.Scoring

	var step Level
	switch {
	case score <= s.DropTwo:
		step = 2
	case score <= s.DropOne:
		step = 1
	case score >= s.RaiseOne:
		step = -1
	default:
		level := c.level
		c.mu.Unlock()
		return level, false
	}

	next := clampLevel(c.level + step)
	if next == c.level {
		c.mu.Unlock()
		return next, false
	}

	cbs := c.transition(next)
	c.mu.Unlock()
	c.notify(next, cbs)
	return next, true
}

// ForceLevel bypasses scoring for explicit overrides
func (c *Controller) ForceLevel(l Level) {
	c.mu.Lock()

	next := clampLevel(l)
	if next == c.level {
		c.mu.Unlock()
		return
	}
	cbs := c.transition(next)
	c.mu.Unlock()
	c.notify(next, cbs)
}

// ForceDegrade steps one rung toward minimal, bypassing score and
// cooldown. Invoked by the monitor on memory pressure
func (c *Controller) ForceDegrade() {
	c.mu.Lock()

	next := clampLevel(c.level + 1)
	if next == c.level {
		c.mu.Unlock()
		return
	}
	cbs := c.transition(next)
	c.mu.Unlock()
	c.notify(next, cbs)
}

// transition commits a level change while c.mu is held and returns a
// snapshot of the callbacks. Notification happens after the lock drops
// so subscribers may call back into the controller
func (c *Controller) transition(next Level) []QualityFunc {
	prev := c.level
	c.level = next
	c.lastChange = c.now()

	core.Logger().Info("quality level change",
		"from", prev.String(), "to", next.String())

	return append([]QualityFunc{}, c.callbacks...)
}

func (c *Controller) notify(level Level, cbs []QualityFunc) {
	settings := SettingsFor(level)
	for _, fn := range cbs {
		fn(level, settings)
	}
}
