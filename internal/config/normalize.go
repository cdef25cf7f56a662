package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sidelines/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeJob()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOutput()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("SIDELINES_SERVER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Server.BaseURL = value
	}
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	c.Server.SubmitPath = strings.TrimSpace(c.Server.SubmitPath)
	if c.Server.SubmitPath == "" {
		c.Server.SubmitPath = defaultSubmitPath
	}
	c.Server.ProgressPath = strings.TrimSpace(c.Server.ProgressPath)
	if c.Server.ProgressPath == "" {
		c.Server.ProgressPath = defaultProgressPath
	}
	c.Server.HealthPath = strings.TrimSpace(c.Server.HealthPath)
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = defaultHealthPath
	}
	if c.Server.ConnectTimeoutSeconds <= 0 {
		c.Server.ConnectTimeoutSeconds = defaultConnectTimeoutSeconds
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		c.Server.RequestTimeoutSeconds = 0
	}
}

func (c *Config) normalizeJob() {
	if value, ok := os.LookupEnv("SIDELINES_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Job.Language = value
	}
	if code := language.ToISO2(c.Job.Language); code != "" {
		c.Job.Language = code
	} else {
		c.Job.Language = strings.ToLower(strings.TrimSpace(c.Job.Language))
	}
	if c.Job.Language == "" {
		c.Job.Language = defaultLanguage
	}
	c.Job.Name = strings.TrimSpace(c.Job.Name)
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		c.Paths.SpoolDir = defaultSpoolDir()
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() {
	name := strings.TrimSpace(c.Output.DefaultFilename)
	if name == "" {
		name = defaultOutputFilename
	}
	c.Output.DefaultFilename = filepath.Base(name)
	c.Output.Player = strings.TrimSpace(c.Output.Player)
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("SIDELINES_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
