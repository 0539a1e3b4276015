package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"duskfall/server/internal/guardian"
	"duskfall/server/internal/registry"
	"duskfall/server/internal/respawn"
	"duskfall/server/internal/state"
	"duskfall/server/logging"
)

// Duration wraps time.Duration so tuning files can use "200ms" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full server tuning document.
type Config struct {
	ListenAddr    string `yaml:"listenAddr"`
	Seed          string `yaml:"seed"`
	ExtendedTiers bool   `yaml:"extendedTiers"`
	Debug         bool   `yaml:"debug"`
	BestiaryPath  string `yaml:"bestiaryPath"`
	KillDBPath    string `yaml:"killDbPath"`

	Ticks struct {
		Combat      Duration `yaml:"combat"`
		Visibility  Duration `yaml:"visibility"`
		Guardian    Duration `yaml:"guardian"`
		LedgerSweep Duration `yaml:"ledgerSweep"`
	} `yaml:"ticks"`

	Registry struct {
		MaxPerAnchor     int      `yaml:"maxPerAnchor"`
		DetectionRadius  float64  `yaml:"detectionRadius"`
		WanderRadius     float64  `yaml:"wanderRadius"`
		CritAreaRadius   float64  `yaml:"critAreaRadius"`
		VisibilityWindow Duration `yaml:"visibilityWindow"`
		LedgerIdleWindow Duration `yaml:"ledgerIdleWindow"`
	} `yaml:"registry"`

	Respawn struct {
		BaseDelay Duration `yaml:"baseDelay"`
		MinDelay  Duration `yaml:"minDelay"`
		MaxDelay  Duration `yaml:"maxDelay"`
	} `yaml:"respawn"`

	Guardian struct {
		GraceWindow Duration `yaml:"graceWindow"`
	} `yaml:"guardian"`

	Regions []RegionConfig `yaml:"regions"`
	Spawns  []SpawnConfig  `yaml:"spawns"`

	Logging struct {
		Sinks      []string `yaml:"sinks"`
		BufferSize int      `yaml:"bufferSize"`
		JSONL      struct {
			Dir      string `yaml:"dir"`
			Prefix   string `yaml:"prefix"`
			Compress bool   `yaml:"compress"`
		} `yaml:"jsonl"`
	} `yaml:"logging"`
}

// RegionConfig declares a loaded region footprint for the in-memory arena.
type RegionConfig struct {
	Name string  `yaml:"name"`
	MinX float64 `yaml:"minX"`
	MinY float64 `yaml:"minY"`
	MaxX float64 `yaml:"maxX"`
	MaxY float64 `yaml:"maxY"`
}

// SpawnConfig declares an initial population entry placed at boot.
type SpawnConfig struct {
	Region  string  `yaml:"region"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Species string  `yaml:"species"`
	Tier    int     `yaml:"tier"`
	Elite   bool    `yaml:"elite"`
	Count   int     `yaml:"count"`
}

func DefaultConfigValues() Config {
	var cfg Config
	cfg.ListenAddr = ":8080"
	cfg.Seed = "duskfall"
	cfg.Ticks.Combat = Duration(200 * time.Millisecond)
	cfg.Ticks.Visibility = Duration(500 * time.Millisecond)
	cfg.Ticks.Guardian = Duration(3 * time.Second)
	cfg.Ticks.LedgerSweep = Duration(time.Minute)
	cfg.Logging.Sinks = []string{"console"}
	cfg.Regions = []RegionConfig{{Name: "overworld", MinX: 0, MinY: 0, MaxX: 256, MaxY: 256}}
	cfg.Spawns = []SpawnConfig{{Region: "overworld", X: 32, Y: 32, Species: "husk", Tier: 1, Count: 3}}
	return cfg
}

// LoadConfig reads the tuning file when path is non-empty, then applies
// environment overrides. A missing file is not an error; defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfigValues()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg.normalized(), nil
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("DUSKFALL_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if seed := os.Getenv("DUSKFALL_SEED"); seed != "" {
		cfg.Seed = seed
	}
	if path := os.Getenv("DUSKFALL_KILL_DB"); path != "" {
		cfg.KillDBPath = path
	}
	if raw := os.Getenv("DUSKFALL_DEBUG"); raw != "" {
		if debug, err := strconv.ParseBool(raw); err == nil {
			cfg.Debug = debug
		}
	}
}

func (c Config) normalized() Config {
	normalized := c
	defaults := DefaultConfigValues()
	if normalized.ListenAddr == "" {
		normalized.ListenAddr = defaults.ListenAddr
	}
	if normalized.Seed == "" {
		normalized.Seed = defaults.Seed
	}
	if normalized.Ticks.Combat <= 0 {
		normalized.Ticks.Combat = defaults.Ticks.Combat
	}
	if normalized.Ticks.Visibility <= 0 {
		normalized.Ticks.Visibility = defaults.Ticks.Visibility
	}
	if normalized.Ticks.Guardian <= 0 {
		normalized.Ticks.Guardian = defaults.Ticks.Guardian
	}
	if normalized.Ticks.LedgerSweep <= 0 {
		normalized.Ticks.LedgerSweep = defaults.Ticks.LedgerSweep
	}
	if len(normalized.Logging.Sinks) == 0 {
		normalized.Logging.Sinks = defaults.Logging.Sinks
	}
	return normalized
}

func (c Config) registryConfig() registry.Config {
	return registry.Config{
		MaxPerAnchor:     c.Registry.MaxPerAnchor,
		DetectionRadius:  c.Registry.DetectionRadius,
		WanderRadius:     c.Registry.WanderRadius,
		CritAreaRadius:   c.Registry.CritAreaRadius,
		ExtendedTiers:    c.ExtendedTiers,
		Debug:            c.Debug,
		VisibilityWindow: c.Registry.VisibilityWindow.Std(),
		LedgerIdleWindow: c.Registry.LedgerIdleWindow.Std(),
		Respawn: respawn.Config{
			BaseDelay: c.Respawn.BaseDelay.Std(),
			MinDelay:  c.Respawn.MinDelay.Std(),
			MaxDelay:  c.Respawn.MaxDelay.Std(),
		},
		Seed: c.Seed,
	}
}

func (c Config) guardianConfig(radiusFor func(actor *state.Actor) float64) guardian.Config {
	return guardian.Config{
		WanderRadius: c.Registry.WanderRadius,
		GraceWindow:  c.Guardian.GraceWindow.Std(),
		RadiusFor:    radiusFor,
	}
}

func (c Config) loggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = c.Logging.Sinks
	if c.Logging.BufferSize > 0 {
		cfg.BufferSize = c.Logging.BufferSize
	}
	cfg.JSONL = logging.JSONLConfig{
		Dir:      c.Logging.JSONL.Dir,
		Prefix:   c.Logging.JSONL.Prefix,
		Compress: c.Logging.JSONL.Compress,
	}
	return cfg
}
