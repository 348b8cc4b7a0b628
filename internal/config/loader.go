package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".abogus"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	cf.dir = filepath.Dir(path)

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .abogus in the current directory
// 3. Look for .abogus in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// FindScript resolves the signing script path.
// A non-default scriptPath is returned as is so that a missing file is
// reported against the path the user gave. For the default name, the
// current directory is tried first and then the XDG config directory.
// If neither exists, the default relative path is returned.
func FindScript(scriptPath string) string {
	if scriptPath != "" && scriptPath != DefaultScriptPath {
		return scriptPath
	}

	if _, err := os.Stat(DefaultScriptPath); err == nil {
		return DefaultScriptPath
	}

	xdgScript := filepath.Join(XDGConfigDir(), DefaultScriptPath)
	if _, err := os.Stat(xdgScript); err == nil {
		return xdgScript
	}

	return DefaultScriptPath
}
