package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSkip()
	c.normalizeDetection()
	c.normalizeChapters()
	c.normalizePlayer()
	c.normalizeIdentify()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

// normalizeSkip clamps out-of-range values rather than rejecting them so a
// hand-edited file never prevents playback.
func (c *Config) normalizeSkip() {
	switch {
	case c.Skip.DefaultDelay < 0:
		c.Skip.DefaultDelay = defaultDelay
	case c.Skip.DefaultDelay > maxDefaultDelay:
		c.Skip.DefaultDelay = maxDefaultDelay
	}
	switch {
	case c.Skip.SkipDuration < minSkipDuration:
		c.Skip.SkipDuration = defaultSkipDuration
	case c.Skip.SkipDuration > maxSkipDuration:
		c.Skip.SkipDuration = maxSkipDuration
	}
	if c.Skip.PromptTimeoutSeconds < 0 {
		c.Skip.PromptTimeoutSeconds = defaultPromptTimeout
	}
	c.Skip.Prompt = strings.ToLower(strings.TrimSpace(c.Skip.Prompt))
	if c.Skip.Prompt == "" {
		c.Skip.Prompt = PromptOSD
	}
}

func (c *Config) normalizeDetection() {
	if c.Detection.MetadataDelayMS < 0 {
		c.Detection.MetadataDelayMS = defaultMetadataDelay
	}
	if c.Detection.ChapterDelayMS < 0 {
		c.Detection.ChapterDelayMS = defaultChapterDelay
	}
	if c.Detection.MetadataTimeoutMS <= 0 {
		c.Detection.MetadataTimeoutMS = defaultMetadataWait
	}
	if c.Detection.PollIntervalMS <= 0 {
		c.Detection.PollIntervalMS = defaultPollInterval
	}
}

func (c *Config) normalizeChapters() {
	backends := make([]string, 0, len(c.Chapters.Backends))
	seen := make(map[string]struct{}, len(c.Chapters.Backends))
	for _, name := range c.Chapters.Backends {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		backends = append(backends, normalized)
	}
	if len(backends) == 0 {
		backends = []string{BackendPlayer, BackendFFprobe}
	}
	c.Chapters.Backends = backends
	if c.Chapters.Retries <= 0 {
		c.Chapters.Retries = defaultChapterRetries
	}
	if c.Chapters.RetryBackoffMS < 0 {
		c.Chapters.RetryBackoffMS = defaultRetryBackoff
	}
	c.Chapters.FFprobeBinary = strings.TrimSpace(c.Chapters.FFprobeBinary)
	if c.Chapters.FFprobeBinary == "" {
		c.Chapters.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizePlayer() {
	c.Player.Backend = strings.ToLower(strings.TrimSpace(c.Player.Backend))
	if c.Player.Backend == "" {
		c.Player.Backend = defaultPlayerBackend
	}
	c.Player.SocketPath = strings.TrimSpace(c.Player.SocketPath)
	if c.Player.SocketPath == "" {
		c.Player.SocketPath = defaultSocketPath
	}
	if c.Player.CommandTimeoutMS <= 0 {
		c.Player.CommandTimeoutMS = defaultCommandTimeout
	}
}

func (c *Config) normalizeIdentify() {
	if c.Identify.FuzzyThreshold <= 0 {
		c.Identify.FuzzyThreshold = defaultFuzzyThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
