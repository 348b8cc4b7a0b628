package jsvm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEngine is returned by New and ParseKind for an unsupported engine name.
	ErrUnknownEngine = errors.New("unknown javascript engine")

	// ErrFunctionNotFound is returned when the requested global is missing
	// or is not callable.
	ErrFunctionNotFound = errors.New("function not found in script")

	// ErrNotString is returned when the called function returns a value
	// that is not a string.
	ErrNotString = errors.New("function did not return a string")

	// ErrInterrupted is returned when a running call is stopped because its
	// context ended.
	ErrInterrupted = errors.New("script execution interrupted")

	// ErrNotLoaded is returned by Call before any script was loaded.
	ErrNotLoaded = errors.New("no script loaded")
)

// ScriptError is a JavaScript exception or syntax error raised by a script.
type ScriptError struct {
	// Engine is the name of the engine that raised the error.
	Engine string

	// Op is "load" or "call".
	Op string

	// Message is the engine's rendering of the exception.
	Message string
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s failed: %s", e.Engine, e.Op, e.Message)
}

// IsScriptError reports whether err is or wraps a *ScriptError.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}
