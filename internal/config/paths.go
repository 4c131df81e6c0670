package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/errors"
)

// GlobalConfigDir returns the path to the global taskflow directory.
// This is typically ~/.taskflow on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.AppHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
func ProjectConfigDir() string {
	return constants.AppHome
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.ConfigFileName)
}

// TemplatesDir returns the directory relative template paths resolve against.
func (c *Config) TemplatesDir() (string, error) {
	if c.Templates.Dir != "" {
		return expandHome(c.Templates.Dir), nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.TemplatesDir), nil
}
