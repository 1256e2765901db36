package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSkip(); err != nil {
		return err
	}
	if err := c.validateChapters(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateIdentify(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DatabasePath == "" {
		return errors.New("paths.database_path must be set")
	}
	return nil
}

func (c *Config) validateSkip() error {
	switch c.Skip.Prompt {
	case PromptOSD, PromptTerminal:
		return nil
	default:
		return fmt.Errorf("skip.prompt: unsupported value %q (use %q or %q)", c.Skip.Prompt, PromptOSD, PromptTerminal)
	}
}

func (c *Config) validateChapters() error {
	for _, name := range c.Chapters.Backends {
		switch name {
		case BackendPlayer, BackendFFprobe:
		default:
			return fmt.Errorf("chapters.backends: unsupported backend %q (use %q or %q)", name, BackendPlayer, BackendFFprobe)
		}
	}
	if c.Chapters.Retries > 10 {
		return errors.New("chapters.retries must be 10 or fewer")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.Backend != defaultPlayerBackend {
		return fmt.Errorf("player.backend: unsupported player %q", c.Player.Backend)
	}
	return nil
}

func (c *Config) validateIdentify() error {
	if c.Identify.FuzzyThreshold > 1 {
		return errors.New("identify.fuzzy_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported level %q", c.Logging.Level)
	}
}
