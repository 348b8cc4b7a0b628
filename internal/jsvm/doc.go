// Package jsvm runs external JavaScript inside an embedded, pure-Go VM.
//
// The package hides the differences between the supported engines behind
// the Engine interface:
//   - goja: ECMAScript 5.1 plus most of ES2015+, the default
//   - otto: ECMAScript 5 only, kept for scripts written against it
//
// An Engine holds one global scope. Load evaluates a script into that scope
// and Call invokes a global function by name with string arguments,
// expecting a string back.
//
// # Cancellation
//
// Call watches its context. When the context is cancelled or its deadline
// passes while the script is still running, the VM is interrupted and Call
// returns an error that wraps both ErrInterrupted and the context error.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Callers that sign from several
// goroutines keep one Engine per goroutine (see bogus.Pool).
package jsvm
