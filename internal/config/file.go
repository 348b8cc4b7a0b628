package config

import (
	"path/filepath"
	"time"
)

// File represents the structure of the .abogus configuration file.
// Zero values leave the corresponding default untouched.
type File struct {
	// Script is the signing script path. A relative path is resolved against
	// the directory of the configuration file.
	Script string `yaml:"script,omitempty"`

	// Function is the exported function name.
	Function string `yaml:"function,omitempty"`

	// Engine is "goja" or "otto".
	Engine string `yaml:"engine,omitempty"`

	// UserAgent is the default user agent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// TokenLength is the ms_token length.
	TokenLength int `yaml:"token_length,omitempty"`

	// Timeout bounds one script call, e.g. "10s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// PoolSize is the number of loaded engines.
	PoolSize int `yaml:"pool_size,omitempty"`

	// History enables or disables the history database.
	History *bool `yaml:"history,omitempty"`

	// dir is the directory the file was read from.
	dir string
}

// Apply copies the non-zero settings of the file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Script != "" {
		cfg.ScriptPath = f.resolve(f.Script)
	}
	if f.Function != "" {
		cfg.FunctionName = f.Function
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.TokenLength != 0 {
		cfg.TokenLength = f.TokenLength
	}
	if f.Timeout != 0 {
		cfg.CallTimeout = f.Timeout
	}
	if f.PoolSize != 0 {
		cfg.PoolSize = f.PoolSize
	}
	if f.History != nil {
		cfg.SaveToDB = *f.History
	}
}

// resolve makes a relative path relative to the configuration file.
func (f *File) resolve(path string) string {
	if filepath.IsAbs(path) || f.dir == "" {
		return path
	}
	return filepath.Join(f.dir, path)
}
