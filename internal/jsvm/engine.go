package jsvm

import (
	"context"
	"fmt"
	"strings"
)

// Kind names an engine implementation.
type Kind string

const (
	// KindGoja selects github.com/dop251/goja.
	KindGoja Kind = "goja"

	// KindOtto selects github.com/robertkrimen/otto.
	KindOtto Kind = "otto"
)

// DefaultKind is the engine used when none is configured.
const DefaultKind = KindGoja

// Kinds lists every supported engine.
func Kinds() []Kind {
	return []Kind{KindGoja, KindOtto}
}

// String returns the engine name.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a user supplied engine name. The empty string maps to
// DefaultKind and matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultKind, nil
	case KindGoja:
		return KindGoja, nil
	case KindOtto:
		return KindOtto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// Engine is an embedded JavaScript VM.
type Engine interface {
	// Name returns the engine kind.
	Name() Kind

	// Load evaluates source in the global scope. name is used in error
	// messages and stack traces.
	Load(name, source string) error

	// HasFunction reports whether fn is a callable global.
	HasFunction(fn string) bool

	// Call invokes the global function fn with args and returns its string
	// result.
	Call(ctx context.Context, fn string, args ...string) (string, error)
}

// New creates an empty engine of the given kind.
func New(kind Kind) (Engine, error) {
	switch kind {
	case KindGoja, "":
		return newGojaEngine(), nil
	case KindOtto:
		return newOttoEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, string(kind))
	}
}

// interruptedError wraps the context error so callers can match either
// ErrInterrupted or context.DeadlineExceeded / context.Canceled.
func interruptedError(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}
