package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeLoader()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := os.LookupEnv("FUSIONKIT_TEMPLATES"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TemplatesFile = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.TemplatesFile) == "" {
		c.Paths.TemplatesFile = defaultTemplatesFile
	}
	if c.Paths.TemplatesFile, err = expandPath(c.Paths.TemplatesFile); err != nil {
		return fmt.Errorf("paths.templates_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.PublishDB) == "" {
		c.Paths.PublishDB = defaultPublishDB
	}
	if c.Paths.PublishDB, err = expandPath(c.Paths.PublishDB); err != nil {
		return fmt.Errorf("paths.publish_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.HostVersion = strings.TrimSpace(c.Engine.HostVersion)
	if c.Engine.HostVersion == "" {
		if value, ok := os.LookupEnv("FUSION_VERSION"); ok {
			c.Engine.HostVersion = strings.TrimSpace(value)
		}
	}
	if c.Engine.CompatibilityDialogMinVersion <= 0 {
		c.Engine.CompatibilityDialogMinVersion = defaultCompatibilityDialogMinVersion
	}
	startup := c.Engine.RunAtStartup[:0]
	for _, entry := range c.Engine.RunAtStartup {
		entry.AppInstance = strings.TrimSpace(entry.AppInstance)
		entry.Name = strings.TrimSpace(entry.Name)
		startup = append(startup, entry)
	}
	c.Engine.RunAtStartup = startup
}

func (c *Config) normalizeLoader() {
	exts := make([]string, 0, len(c.Loader.Extensions))
	seen := make(map[string]struct{}, len(c.Loader.Extensions))
	for _, ext := range c.Loader.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions()
	}
	c.Loader.Extensions = exts

	if len(c.Loader.Actions) == 0 {
		c.Loader.Actions = map[string][]string{wildcardPublishType: {"read_node"}}
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
}
