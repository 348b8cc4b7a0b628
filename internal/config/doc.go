// Package config provides configuration structures and utilities for abogus.
// It defines the defaults, the YAML configuration file (.abogus), the lookup
// of the signing script and the XDG directories used for persistent data.
package config
