package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all strata configuration. It is passed by value into engine
// operations so that one extraction or GC pass always sees a single immutable
// snapshot, even if the file is reloaded concurrently.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	ShortTerm ShortTermConfig `toml:"short_term"`
	Mid       MidConfig       `toml:"mid"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Extractor ExtractorConfig `toml:"extractor"`
	Augment   AugmentConfig   `toml:"augment"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ShortTermConfig bounds the derived short-term view over turns.
type ShortTermConfig struct {
	Size int `toml:"size"` // turns kept per session
}

// MidConfig holds the mid-term tier thresholds used by the lifecycle pass
// and by extraction-time deduplication.
type MidConfig struct {
	Capacity             int     `toml:"capacity"`
	PromoteHits          int     `toml:"promote_hits"`
	PromoteWindowDays    float64 `toml:"promote_window_days"`
	DemoteAgeDays        float64 `toml:"demote_age_days"`
	DeleteScoreThreshold float64 `toml:"delete_score_threshold"`
	MergeThreshold       float64 `toml:"merge_threshold"`
	ConflictThreshold    float64 `toml:"conflict_threshold"`
}

type ScoringConfig struct {
	WFreq       float64 `toml:"w_freq"`
	WRecency    float64 `toml:"w_recency"`
	WImportance float64 `toml:"w_importance"`
	Lambda      float64 `toml:"lambda"`
}

// ExtractorConfig selects how candidate facts are derived from a turn.
// Mode is one of "heuristic", "llm", "hybrid".
type ExtractorConfig struct {
	Mode string `toml:"mode"`
}

type AugmentConfig struct {
	Provider  string `toml:"provider"` // "openai", "ollama", "none"
	Endpoint  string `toml:"endpoint"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	TimeoutS  int    `toml:"timeout_s"`
}

// Default returns a Config with the stock thresholds.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8787,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		ShortTerm: ShortTermConfig{
			Size: 100,
		},
		Mid: MidConfig{
			Capacity:             500,
			PromoteHits:          3,
			PromoteWindowDays:    7,
			DemoteAgeDays:        30,
			DeleteScoreThreshold: 0.5,
			MergeThreshold:       0.85,
			ConflictThreshold:    0.30,
		},
		Scoring: ScoringConfig{
			WFreq:       1.0,
			WRecency:    1.0,
			WImportance: 2.0,
			Lambda:      0.05,
		},
		Extractor: ExtractorConfig{
			Mode: "hybrid",
		},
		Augment: AugmentConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			TimeoutS:  8,
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
// A missing file is not an error — defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
