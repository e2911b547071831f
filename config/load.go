package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from path. A missing file is not an error:
// defaults apply and PANELKIT_* environment variables still override.
// An empty path skips the file entirely
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PANELKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("engine.target_fps", cfg.Engine.TargetFPS)
	v.SetDefault("engine.frame_skip_factor", cfg.Engine.FrameSkipFactor)
	v.SetDefault("engine.merge_threshold", cfg.Engine.MergeThreshold)
	v.SetDefault("monitor.interval_seconds", cfg.Monitor.IntervalSeconds)
	v.SetDefault("monitor.history_size", cfg.Monitor.HistorySize)
	v.SetDefault("monitor.min_fps", cfg.Monitor.MinFPS)
	v.SetDefault("monitor.max_cpu_percent", cfg.Monitor.MaxCPUPercent)
	v.SetDefault("monitor.max_memory_percent", cfg.Monitor.MaxMemoryPercent)
	v.SetDefault("monitor.max_temperature", cfg.Monitor.MaxTemperature)
	v.SetDefault("monitor.max_frame_drops", cfg.Monitor.MaxFrameDrops)
	v.SetDefault("quality.adaptive", cfg.Quality.Adaptive)
	v.SetDefault("quality.initial_level", cfg.Quality.InitialLevel)
	v.SetDefault("quality.target_cpu", cfg.Quality.TargetCPU)
	v.SetDefault("quality.cooldown_seconds", cfg.Quality.CooldownSeconds)
	v.SetDefault("quality.scoring.fps_good_ratio", cfg.Quality.Scoring.FPSGoodRatio)
	v.SetDefault("quality.scoring.fps_ok_ratio", cfg.Quality.Scoring.FPSOKRatio)
	v.SetDefault("quality.scoring.fps_bad_ratio", cfg.Quality.Scoring.FPSBadRatio)
	v.SetDefault("quality.scoring.cpu_high_ratio", cfg.Quality.Scoring.CPUHighRatio)
	v.SetDefault("quality.scoring.cpu_bad_ratio", cfg.Quality.Scoring.CPUBadRatio)
	v.SetDefault("quality.scoring.cpu_low_ratio", cfg.Quality.Scoring.CPULowRatio)
	v.SetDefault("quality.scoring.mem_high_percent", cfg.Quality.Scoring.MemHighPercent)
	v.SetDefault("quality.scoring.mem_low_percent", cfg.Quality.Scoring.MemLowPercent)
	v.SetDefault("quality.scoring.drop_two", cfg.Quality.Scoring.DropTwo)
	v.SetDefault("quality.scoring.drop_one", cfg.Quality.Scoring.DropOne)
	v.SetDefault("quality.scoring.raise_one", cfg.Quality.Scoring.RaiseOne)
	v.SetDefault("events.record_capacity", cfg.Events.RecordCapacity)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !notFound && !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
