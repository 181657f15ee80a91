//go:build js_eval

package params

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsConverter executes rule expressions on a fresh goja runtime per run. The
// candidate value is bound as value; registry functions are callable by name
// or through call("name", args...).
type jsConverter struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSConverter builds a Converter that pipes every candidate value through
// expression and adopts the result. Available only with the js_eval build
// tag.
func JSConverter[T any](expression string, opts ...JSConverterOption) Converter[T] {
	cfg := applyJSConverterOptions(opts)
	e := &jsConverter{cache: cfg.cache, registry: cfg.registry}
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(expression, v)
		if err != nil {
			return zero, err
		}
		converted, err := coerce[T](result)
		if err != nil {
			return zero, wrapConverterError("js", expression, err)
		}
		return converted, nil
	}
}

// JSValidator builds a Converter that keeps the candidate unchanged when rule
// evaluates to true and rejects it with a ValidationError otherwise.
// Available only with the js_eval build tag.
func JSValidator[T any](rule string, opts ...JSConverterOption) Converter[T] {
	cfg := applyJSConverterOptions(opts)
	e := &jsConverter{cache: cfg.cache, registry: cfg.registry}
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(rule, v)
		if err != nil {
			return zero, err
		}
		accepted, isBool := result.(bool)
		if !isBool {
			return zero, wrapConverterError("js", rule, fmt.Errorf("rule must return bool, got %T", result))
		}
		if !accepted {
			return zero, &ValidationError{Value: v, Err: fmt.Errorf("rejected by rule %q", rule)}
		}
		return v, nil
	}
}

func (e *jsConverter) run(expression string, value any) (any, error) {
	if expression == "" {
		return nil, wrapConverterError("js", expression, fmt.Errorf("expression must not be empty"))
	}
	if e.cache == nil {
		return e.evaluate(expression, value, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.evaluate(expression, value, program)
}

func (e *jsConverter) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, wrapConverterError("js", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsConverter) evaluate(expression string, value any, program *goja.Program) (any, error) {
	vm := goja.New()
	e.inject(vm, value)
	if program != nil {
		result, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapConverterError("js", expression, err)
		}
		return result.Export(), nil
	}
	result, err := vm.RunString(e.wrapExpression(expression))
	if err != nil {
		return nil, wrapConverterError("js", expression, err)
	}
	return result.Export(), nil
}

func (e *jsConverter) inject(vm *goja.Runtime, value any) {
	vm.Set("value", value)
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsConverter) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsConverterAvailable() bool {
	return true
}
