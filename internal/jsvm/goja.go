package jsvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// errGojaInterrupt is the value handed to goja.Runtime.Interrupt.
var errGojaInterrupt = errors.New("context done")

// gojaEngine runs scripts on github.com/dop251/goja.
type gojaEngine struct {
	vm     *goja.Runtime
	loaded bool
}

func newGojaEngine() *gojaEngine {
	return &gojaEngine{vm: goja.New()}
}

// Name implements Engine.
func (e *gojaEngine) Name() Kind {
	return KindGoja
}

// Load implements Engine.
func (e *gojaEngine) Load(name, source string) error {
	if _, err := e.vm.RunScript(name, source); err != nil {
		return &ScriptError{Engine: KindGoja.String(), Op: "load", Message: err.Error()}
	}
	e.loaded = true
	return nil
}

// HasFunction implements Engine.
func (e *gojaEngine) HasFunction(fn string) bool {
	_, ok := goja.AssertFunction(e.vm.Get(fn))
	return ok
}

// Call implements Engine.
func (e *gojaEngine) Call(ctx context.Context, fn string, args ...string) (string, error) {
	if !e.loaded {
		return "", ErrNotLoaded
	}

	callable, ok := goja.AssertFunction(e.vm.Get(fn))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFunctionNotFound, fn)
	}

	if ctx.Err() != nil {
		return "", interruptedError(ctx)
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		e.vm.Interrupt(errGojaInterrupt)
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
		e.vm.ClearInterrupt()
	}()

	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = e.vm.ToValue(arg)
	}

	res, err := callable(goja.Undefined(), values...)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return "", interruptedError(ctx)
		}
		return "", &ScriptError{Engine: KindGoja.String(), Op: "call", Message: err.Error()}
	}

	s, ok := res.Export().(string)
	if !ok {
		return "", fmt.Errorf("%w: %s returned %s", ErrNotString, fn, gojaTypeOf(res))
	}
	return s, nil
}

// gojaTypeOf names the JavaScript type of v for error messages.
func gojaTypeOf(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	default:
		return v.ExportType().Kind().String()
	}
}
