package jsvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/robertkrimen/otto"
)

// errOttoHalt is panicked from the interrupt hook and recovered in Call.
var errOttoHalt = errors.New("halt")

// ottoEngine runs scripts on github.com/robertkrimen/otto.
type ottoEngine struct {
	vm     *otto.Otto
	loaded bool
}

func newOttoEngine() *ottoEngine {
	return &ottoEngine{vm: otto.New()}
}

// Name implements Engine.
func (e *ottoEngine) Name() Kind {
	return KindOtto
}

// Load implements Engine.
func (e *ottoEngine) Load(name, source string) error {
	script, err := e.vm.Compile(name, source)
	if err != nil {
		return &ScriptError{Engine: KindOtto.String(), Op: "load", Message: err.Error()}
	}
	if _, err := e.vm.Run(script); err != nil {
		return &ScriptError{Engine: KindOtto.String(), Op: "load", Message: err.Error()}
	}
	e.loaded = true
	return nil
}

// HasFunction implements Engine.
func (e *ottoEngine) HasFunction(fn string) bool {
	v, err := e.vm.Get(fn)
	return err == nil && v.IsFunction()
}

// Call implements Engine.
func (e *ottoEngine) Call(ctx context.Context, fn string, args ...string) (result string, err error) {
	if !e.loaded {
		return "", ErrNotLoaded
	}

	callable, err := e.vm.Get(fn)
	if err != nil || !callable.IsFunction() {
		return "", fmt.Errorf("%w: %s", ErrFunctionNotFound, fn)
	}

	if ctx.Err() != nil {
		return "", interruptedError(ctx)
	}

	e.vm.Interrupt = make(chan func(), 1)
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		e.vm.Interrupt <- func() {
			panic(errOttoHalt)
		}
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
		e.vm.Interrupt = nil
		if caught := recover(); caught != nil {
			if caught == errOttoHalt { //nolint:errorlint // sentinel panic value
				result, err = "", interruptedError(ctx)
				return
			}
			panic(caught)
		}
	}()

	argv := make([]interface{}, len(args))
	for i, arg := range args {
		argv[i] = arg
	}

	res, callErr := callable.Call(otto.UndefinedValue(), argv...)
	if callErr != nil {
		return "", &ScriptError{Engine: KindOtto.String(), Op: "call", Message: callErr.Error()}
	}
	if !res.IsString() {
		return "", fmt.Errorf("%w: %s returned %s", ErrNotString, fn, ottoTypeOf(res))
	}
	return res.String(), nil
}

// ottoTypeOf names the JavaScript type of v for error messages.
func ottoTypeOf(v otto.Value) string {
	switch {
	case v.IsUndefined():
		return "undefined"
	case v.IsNull():
		return "null"
	case v.IsNumber():
		return "number"
	case v.IsBoolean():
		return "boolean"
	case v.IsFunction():
		return "function"
	default:
		return "object"
	}
}
