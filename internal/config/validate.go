package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/toonvault/config.toml"
		}
		return fmt.Errorf("storage.url is required. Edit %s (create with 'toonvault config init')", defaultPath)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set")
	}
	if c.Storage.PublicHost == "" {
		return errors.New("storage.public_host must be set")
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	if c.Segmenter.SegmentSeconds <= 0 {
		return errors.New("segmenter.segment_seconds must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.MaxUploadBytes <= 0 {
		return errors.New("ingest.max_upload_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
