package alert

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// Alerter plays short audible cues for performance warnings. Mixing
// goes through one shared mixer so overlapping cues sum instead of
// restarting the speaker
type Alerter struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	muted       bool
	initialized bool
}

// New creates an alerter; audio hardware is not touched until Init
func New() *Alerter {
	return &Alerter{
		mixer: &beep.Mixer{},
	}
}

// Name implements Service
func (a *Alerter) Name() string {
	return "alert"
}

// Init implements Service - opens the speaker
func (a *Alerter) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(a.mixer)
	a.initialized = true
	return nil
}

// Start implements Service
func (a *Alerter) Start() error {
	return nil
}

// Stop implements Service - silences the mixer
// beep has no speaker close; clearing the mixer is the shutdown
func (a *Alerter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil
	}
	a.mixer.Clear()
	a.initialized = false
	return nil
}

// SetMuted suppresses cue playback without tearing down the speaker
func (a *Alerter) SetMuted(muted bool) {
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
}

// Warning plays a short rising two-tone chirp
func (a *Alerter) Warning() {
	a.play(beep.Take(sampleRate.N(time.Millisecond*250),
		NewChirpGenerator(sampleRate, 880, 1320)))
}

// Degrade plays a falling tone marking a quality level drop
func (a *Alerter) Degrade() {
	a.play(beep.Take(sampleRate.N(time.Millisecond*350),
		NewChirpGenerator(sampleRate, 660, 330)))
}

func (a *Alerter) play(s beep.Streamer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized || a.muted {
		return
	}
	a.mixer.Add(s)
}

// ChirpGenerator sweeps a sine from startFreq to endFreq over its
// sweep window with a fade-in/fade-out envelope
type ChirpGenerator struct {
	sr        beep.SampleRate
	startFreq float64
	endFreq   float64
	pos       int
	samples   int
}

// NewChirpGenerator creates a frequency-sweep generator
func NewChirpGenerator(sr beep.SampleRate, startFreq, endFreq float64) *ChirpGenerator {
	return &ChirpGenerator{
		sr:        sr,
		startFreq: startFreq,
		endFreq:   endFreq,
		samples:   sr.N(time.Millisecond * 300),
	}
}

func (g *ChirpGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		progress := math.Min(float64(g.pos)/float64(g.samples), 1.0)
		freq := g.startFreq + (g.endFreq-g.startFreq)*progress

		// Fade in over the first 10ms, fade out over the last quarter
		envelope := math.Min(t/0.01, 1.0)
		if progress > 0.75 {
			envelope *= (1.0 - progress) / 0.25
		}

		sample := 0.2 * envelope * math.Sin(2*math.Pi*freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ChirpGenerator) Err() error {
	return nil
}
