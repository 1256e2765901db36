package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data, log, and database locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
}

// Skip contains the user-facing skip behaviour.
type Skip struct {
	// DefaultDelay is the playback position in seconds after which the
	// default window may be offered when nothing better is known.
	DefaultDelay int `toml:"default_delay"`
	// SkipDuration is the length in seconds of the default window, and the
	// fallback window length when an intro chapter has no successor.
	SkipDuration         int  `toml:"skip_duration"`
	UseChapters          bool `toml:"use_chapters"`
	SaveTimes            bool `toml:"save_times"`
	PromptTimeoutSeconds int  `toml:"prompt_timeout_seconds"`
	AutoSkip             bool `toml:"auto_skip"`
	// Prompt selects where the skip question is asked: PromptOSD or
	// PromptTerminal.
	Prompt string `toml:"prompt"`
}

// Detection contains timing for the background detection task.
type Detection struct {
	MetadataDelayMS   int `toml:"metadata_delay_ms"`
	ChapterDelayMS    int `toml:"chapter_delay_ms"`
	MetadataTimeoutMS int `toml:"metadata_timeout_ms"`
	PollIntervalMS    int `toml:"poll_interval_ms"`
}

// Chapters contains chapter extraction settings.
type Chapters struct {
	Backends       []string `toml:"backends"`
	Retries        int      `toml:"retries"`
	RetryBackoffMS int      `toml:"retry_backoff_ms"`
	FFprobeBinary  string   `toml:"ffprobe_binary"`
}

// Player contains the host player connection settings.
type Player struct {
	Backend          string `toml:"backend"`
	SocketPath       string `toml:"socket_path"`
	Binary           string `toml:"binary"`
	CommandTimeoutMS int    `toml:"command_timeout_ms"`
}

// Identify contains episode identification settings.
type Identify struct {
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for skipintro.
//
// Configuration sections by subsystem:
//   - Paths: data directory, log directory, and episode database
//   - Skip: default delay, skip duration, chapter use, and persistence
//   - Detection: background detection waits
//   - Chapters: chapter backends and retry policy
//   - Player: host player IPC socket
//   - Identify: show title canonicalization
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Skip      Skip      `toml:"skip"`
	Detection Detection `toml:"detection"`
	Chapters  Chapters  `toml:"chapters"`
	Player    Player    `toml:"player"`
	Identify  Identify  `toml:"identify"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and out-of-range values clamped.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("skipintro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and database directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for chapter extraction.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Chapters.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// PlayerBinary returns the host player executable name.
func (c *Config) PlayerBinary() string {
	if bin := strings.TrimSpace(c.Player.Binary); bin != "" {
		return bin
	}
	return defaultPlayerBinary
}

// PromptTimeout returns the auto-decline timeout for skip prompts.
func (c *Config) PromptTimeout() time.Duration {
	return time.Duration(c.Skip.PromptTimeoutSeconds) * time.Second
}

// MetadataDelay returns the wait before the first metadata read.
func (c *Config) MetadataDelay() time.Duration {
	return millis(c.Detection.MetadataDelayMS)
}

// ChapterDelay returns the wait between identification and chapter lookup.
func (c *Config) ChapterDelay() time.Duration {
	return millis(c.Detection.ChapterDelayMS)
}

// MetadataTimeout bounds the wait for playback metadata to become available.
func (c *Config) MetadataTimeout() time.Duration {
	return millis(c.Detection.MetadataTimeoutMS)
}

// PollInterval returns the metadata poll interval.
func (c *Config) PollInterval() time.Duration {
	return millis(c.Detection.PollIntervalMS)
}

// RetryBackoff returns the base backoff between chapter backend retries.
func (c *Config) RetryBackoff() time.Duration {
	return millis(c.Chapters.RetryBackoffMS)
}

// CommandTimeout returns the per-command timeout for player IPC.
func (c *Config) CommandTimeout() time.Duration {
	return millis(c.Player.CommandTimeoutMS)
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
