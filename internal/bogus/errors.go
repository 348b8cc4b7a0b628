package bogus

import "errors"

var (
	// ErrScriptNotFound is returned by NewSigner when the script file does not exist.
	ErrScriptNotFound = errors.New("signing script not found")

	// ErrEmptyScript is returned by NewSigner when the script file is empty.
	ErrEmptyScript = errors.New("signing script is empty")

	// ErrInvalidPoolSize is returned by NewPool for a size below one.
	ErrInvalidPoolSize = errors.New("invalid engine pool size: must be positive")
)
