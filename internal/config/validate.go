package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLoader(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PublishDB) == "" {
		return errors.New("paths.publish_db must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	for i, entry := range c.Engine.RunAtStartup {
		if entry.AppInstance == "" {
			return fmt.Errorf("engine.run_at_startup[%d].app_instance must be set", i)
		}
	}
	return nil
}

func (c *Config) validateLoader() error {
	for publishType, actions := range c.Loader.Actions {
		if strings.TrimSpace(publishType) == "" {
			return errors.New("loader.actions keys must not be empty")
		}
		for _, action := range actions {
			if strings.TrimSpace(action) == "" {
				return fmt.Errorf("loader.actions.%q contains an empty action", publishType)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
