// Demo panel: a status bar and a bouncing box driven by the frame
// scheduler, with adaptive quality, performance warnings and event
// record/replay
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lixenwraith/panelkit/alert"
	"github.com/lixenwraith/panelkit/config"
	"github.com/lixenwraith/panelkit/core"
	"github.com/lixenwraith/panelkit/display"
	"github.com/lixenwraith/panelkit/engine"
	"github.com/lixenwraith/panelkit/events"
	"github.com/lixenwraith/panelkit/perf"
	"github.com/lixenwraith/panelkit/render"
	"github.com/lixenwraith/panelkit/service"
	"github.com/lixenwraith/panelkit/status"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	fps := flag.Int("fps", 0, "override target frame rate")
	duration := flag.Duration("duration", 0, "exit after this long (0 = run until quit)")
	recordPath := flag.String("record", "", "capture events and save to file on exit")
	playPath := flag.String("play", "", "replay events from a recording file")
	mute := flag.Bool("mute", false, "disable audio cues")
	flag.Parse()

	if err := run(*configPath, *fps, *duration, *recordPath, *playPath, *mute); err != nil {
		fmt.Fprintf(os.Stderr, "panelkit-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, fps int, duration time.Duration, recordPath, playPath string, mute bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if fps > 0 {
		cfg.Engine.TargetFPS = fps
	}

	logClose, err := setupLogging(cfg.Logging)
	if err != nil {
		return err
	}
	defer logClose()

	queue := events.NewQueue()
	dispatcher := events.NewDispatcher(queue)

	screen := display.New(dispatcher)
	alerter := alert.New()
	alerter.SetMuted(mute)

	// A panic anywhere must not leave the terminal in raw mode
	core.SetCrashHandler(func(r any) {
		screen.Stop()
		fmt.Fprintf(os.Stderr, "crashed: %v\n%s\n", r, debug.Stack())
		os.Exit(1)
	})

	reg := status.NewRegistry()
	compositor := render.NewCompositor()
	sched := engine.NewScheduler(cfg.SchedulerConfig(), dispatcher, compositor, screen, reg)

	monitor := perf.NewMonitor(cfg.PerfMonitorConfig(), reg)
	sched.SetFrameSink(monitor)

	controller := perf.NewController(cfg.ControllerConfig())
	monitor.SetDegradeFunc(controller.ForceDegrade)
	monitor.OnWarning(func(warnings []string, _ perf.Metrics) {
		alerter.Warning()
	})
	if cfg.Quality.Adaptive {
		monitor.OnSample(func(m perf.Metrics) {
			controller.Analyze(m)
		})
	}

	bar := newStatusBar(screen, reg, controller, dispatcher)
	box := newBouncer(screen, controller.Settings().UpdateFrequency)

	controller.Subscribe(func(level perf.Level, s perf.Settings) {
		sched.SetRegionMerging(s.DirtyRegionOptimization)
		box.setFrequency(s.UpdateFrequency)
		alerter.Degrade()
		dispatcher.Push(events.Event{
			Type: events.EventQualityChange,
			Data: map[string]any{"level": int(level)},
		})
	})
	sched.SetRegionMerging(controller.Settings().DirtyRegionOptimization)

	statusLayer := render.NewLayer("status")
	statusLayer.Add(bar)
	sched.AddLayer(statusLayer, 10)

	contentLayer := render.NewLayer("content")
	contentLayer.Add(box)
	sched.AddLayer(contentLayer, 20)

	// Resize or explicit refresh repaints everything
	redraw := func(events.Event) events.Result {
		statusLayer.MarkDirty()
		contentLayer.MarkDirty()
		return events.Handled
	}
	sched.OnEvent(events.EventResize, events.PriorityHigh, nil, redraw)
	sched.OnEvent(events.EventRefresh, events.PriorityHigh, nil, redraw)

	// p toggles pause from the keyboard
	sched.OnEvent(events.EventInput, events.PriorityNormal,
		func(ev events.Event) bool { return ev.Data["rune"] == "p" },
		func(events.Event) events.Result {
			if sched.State() == engine.StatePaused {
				sched.Resume()
			} else {
				sched.Pause()
			}
			return events.Handled
		})

	if playPath != "" {
		if err := loadReplay(dispatcher, playPath); err != nil {
			return err
		}
	}
	if recordPath != "" {
		if err := dispatcher.StartRecording(cfg.Events.RecordCapacity); err != nil {
			return err
		}
	}

	var services service.Group
	services.Add(screen)
	services.Add(monitor)
	if err := services.Up(); err != nil {
		return err
	}
	defer services.Down()

	// Audio is best-effort: headless panels run silent
	if err := alerter.Init(); err != nil {
		core.Logger().Warn("audio unavailable", "error", err)
	}
	defer alerter.Stop()

	if err := sched.Start(duration); err != nil {
		return err
	}
	sched.Wait()

	if recordPath != "" {
		if err := saveRecording(dispatcher, recordPath); err != nil {
			return err
		}
	}

	stats := sched.Stats()
	core.Logger().Info("run complete",
		"frames", stats.FramesRendered,
		"skipped", stats.FramesSkipped,
		"avg_fps", stats.AverageFPS,
		"level", controller.Level().String())
	return nil
}

// setupLogging installs the process logger per config and returns a
// closer for the log file
func setupLogging(cfg config.LoggingConfig) (func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// The terminal belongs to the display; without a log file the
	// logger stays a no-op
	if cfg.File == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	core.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { f.Close() }, nil
}

func loadReplay(d *events.Dispatcher, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	if err := d.LoadRecording(f); err != nil {
		return fmt.Errorf("load recording: %w", err)
	}
	return d.StartPlayback()
}

func saveRecording(d *events.Dispatcher, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	defer f.Close()

	if err := d.SaveRecording(f); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	core.Logger().Info("recording saved", "path", path, "events", d.RecordedCount())
	return nil
}
