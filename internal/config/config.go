// Package config holds odyssey-ingest run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Dataset layout relative to the root directory.
const (
	annotationsDirName = "annotations"
	screenshotsDirName = "screenshots"
	defaultSplitFile   = "splits/random_split.json"
)

// Config holds dataset layout and run settings.
type Config struct {
	// RootDir is the GUI-Odyssey dataset root.
	RootDir string `toml:"root_dir"`

	// SplitFile is the split manifest path, relative to RootDir unless
	// absolute.
	SplitFile string `toml:"split_file"`

	// Splits to convert, in order.
	Splits []string `toml:"splits"`

	// LimitEpisodes caps episodes per split when > 0. Truncation takes a
	// prefix of the manifest order.
	LimitEpisodes int `toml:"limit_episodes"`

	// OutputDir receives per-split sample JSONL files.
	OutputDir string `toml:"output_dir"`

	// LogDir receives the diagnostics event log.
	LogDir string `toml:"log_dir"`

	Summary SummaryConfig `toml:"summary"`
}

// SummaryConfig controls the optional episode trajectory summarizer.
type SummaryConfig struct {
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		RootDir:   "GUI-Odyssey",
		SplitFile: defaultSplitFile,
		Splits:    []string{"train", "test"},
		OutputDir: "out",
		LogDir:    filepath.Join("out", "log"),
		Summary: SummaryConfig{
			MaxTokens: 300,
		},
	}
}

// Load returns configuration from ODYSSEY_CONFIG if set, otherwise defaults,
// with ODYSSEY_* environment overrides applied either way.
func Load() (*Config, error) {
	if path := os.Getenv("ODYSSEY_CONFIG"); path != "" {
		return LoadFromPath(path)
	}
	cfg := Default()
	applyEnv(cfg)
	return cfg, nil
}

// LoadFromPath loads configuration from a TOML file, creating a sample file
// with the defaults if none exists. Environment overrides still apply on top.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if writeErr := writeSampleConfig(path, cfg); writeErr != nil {
				return cfg, writeErr
			}
			applyEnv(cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.RootDir, "ODYSSEY_ROOT_DIR")
	overrideString(&cfg.SplitFile, "ODYSSEY_SPLIT_FILE")
	overrideString(&cfg.OutputDir, "ODYSSEY_OUTPUT_DIR")
	overrideString(&cfg.LogDir, "ODYSSEY_LOG_DIR")
	overrideInt(&cfg.LimitEpisodes, "ODYSSEY_LIMIT_EPISODES")
	overrideList(&cfg.Splits, "ODYSSEY_SPLITS")
	overrideString(&cfg.Summary.Model, "ODYSSEY_SUMMARY_MODEL")
	overrideInt(&cfg.Summary.MaxTokens, "ODYSSEY_SUMMARY_MAX_TOKENS")
}

// SplitFilePath resolves the split manifest location.
func (c *Config) SplitFilePath() string {
	return c.resolve(c.SplitFile)
}

// AnnotationPath resolves an episode annotation file identifier.
func (c *Config) AnnotationPath(name string) string {
	return filepath.Join(c.RootDir, annotationsDirName, name)
}

// ScreenshotPath resolves a step's screenshot filename.
func (c *Config) ScreenshotPath(name string) string {
	return filepath.Join(c.RootDir, screenshotsDirName, name)
}

// AnnotationsDir returns the directory watch mode observes.
func (c *Config) AnnotationsDir() string {
	return filepath.Join(c.RootDir, annotationsDirName)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RootDir, path)
}

func writeSampleConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func overrideString(dest *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dest = val
	}
}

func overrideInt(dest *int, key string) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dest = parsed
		}
	}
}

func overrideList(dest *[]string, key string) {
	if val := os.Getenv(key); val != "" {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*dest = out
	}
}
