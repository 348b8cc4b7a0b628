package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no URL is given as argument or via --list.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrNoScript is returned when the script path is empty.
	ErrNoScript = errors.New("no signing script configured")

	// ErrNoFunction is returned when the function name is empty.
	ErrNoFunction = errors.New("no script function configured")

	// ErrInvalidEngine is returned for an unsupported engine name.
	ErrInvalidEngine = errors.New("invalid engine: must be goja or otto")

	// ErrInvalidTimeout is returned when the call timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPoolSize is returned when the engine pool size is not positive.
	ErrInvalidPoolSize = errors.New("invalid pool size: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTokenLength is returned for a negative ms_token length.
	ErrInvalidTokenLength = errors.New("invalid token length: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
