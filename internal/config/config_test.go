package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLayout(t *testing.T) {
	cfg := Default()
	if cfg.RootDir != "GUI-Odyssey" {
		t.Errorf("RootDir = %q, want GUI-Odyssey", cfg.RootDir)
	}
	if cfg.SplitFile != "splits/random_split.json" {
		t.Errorf("SplitFile = %q, want splits/random_split.json", cfg.SplitFile)
	}
	if len(cfg.Splits) != 2 || cfg.Splits[0] != "train" || cfg.Splits[1] != "test" {
		t.Errorf("Splits = %v, want [train test]", cfg.Splits)
	}
	if cfg.LimitEpisodes != 0 {
		t.Errorf("LimitEpisodes = %d, want 0", cfg.LimitEpisodes)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.RootDir = "/data/odyssey"

	if got := cfg.SplitFilePath(); got != filepath.Join("/data/odyssey", "splits", "random_split.json") {
		t.Errorf("SplitFilePath = %q", got)
	}
	if got := cfg.AnnotationPath("ep1.json"); got != filepath.Join("/data/odyssey", "annotations", "ep1.json") {
		t.Errorf("AnnotationPath = %q", got)
	}
	if got := cfg.ScreenshotPath("s1.png"); got != filepath.Join("/data/odyssey", "screenshots", "s1.png") {
		t.Errorf("ScreenshotPath = %q", got)
	}

	cfg.SplitFile = "/elsewhere/split.json"
	if got := cfg.SplitFilePath(); got != "/elsewhere/split.json" {
		t.Errorf("absolute SplitFilePath = %q", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ODYSSEY_ROOT_DIR", "/mnt/gui-odyssey")
	t.Setenv("ODYSSEY_LIMIT_EPISODES", "25")
	t.Setenv("ODYSSEY_SPLITS", "train, test ,custom")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RootDir != "/mnt/gui-odyssey" {
		t.Errorf("RootDir = %q", cfg.RootDir)
	}
	if cfg.LimitEpisodes != 25 {
		t.Errorf("LimitEpisodes = %d, want 25", cfg.LimitEpisodes)
	}
	if len(cfg.Splits) != 3 || cfg.Splits[2] != "custom" {
		t.Errorf("Splits = %v", cfg.Splits)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odyssey.toml")
	data := `
root_dir = "/srv/odyssey"
split_file = "splits/custom_split.json"
splits = ["test"]
limit_episodes = 5
output_dir = "/srv/out"

[summary]
model = "claude-3-haiku-20240307"
max_tokens = 200
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.RootDir != "/srv/odyssey" {
		t.Errorf("RootDir = %q", cfg.RootDir)
	}
	if cfg.SplitFile != "splits/custom_split.json" {
		t.Errorf("SplitFile = %q", cfg.SplitFile)
	}
	if len(cfg.Splits) != 1 || cfg.Splits[0] != "test" {
		t.Errorf("Splits = %v", cfg.Splits)
	}
	if cfg.LimitEpisodes != 5 {
		t.Errorf("LimitEpisodes = %d", cfg.LimitEpisodes)
	}
	if cfg.Summary.MaxTokens != 200 {
		t.Errorf("Summary.MaxTokens = %d", cfg.Summary.MaxTokens)
	}
}

func TestLoadFromPathWritesSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "odyssey.toml")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.RootDir != Default().RootDir {
		t.Errorf("expected defaults, got RootDir %q", cfg.RootDir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	// The written sample round-trips.
	again, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload sample: %v", err)
	}
	if again.RootDir != cfg.RootDir || again.SplitFile != cfg.SplitFile {
		t.Errorf("sample round-trip mismatch: %+v vs %+v", again, cfg)
	}
}
