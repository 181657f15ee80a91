package params

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprConverterOption configures an expr converter instance.
type ExprConverterOption func(*exprConverter)

// ExprWithProgramCache wires a ProgramCache into the expr converter.
func ExprWithProgramCache(cache ProgramCache) ExprConverterOption {
	return func(e *exprConverter) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr converter.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprConverterOption {
	return func(e *exprConverter) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprConverter executes rule expressions using github.com/expr-lang/expr.
type exprConverter struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

func newExprConverter(opts []ExprConverterOption) *exprConverter {
	e := &exprConverter{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// ExprConverter builds a Converter that pipes every candidate value through
// expression and adopts the result. The candidate is bound as value inside
// the expression; registry functions are callable by name or through
// call("name", args...).
//
//	params.WithConverter(params.ExprConverter[int]("value < 0 ? 0 : value"))
func ExprConverter[T any](expression string, opts ...ExprConverterOption) Converter[T] {
	e := newExprConverter(opts)
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(expression, v)
		if err != nil {
			return zero, err
		}
		converted, err := coerce[T](result)
		if err != nil {
			return zero, wrapConverterError("expr", expression, err)
		}
		return converted, nil
	}
}

// ExprValidator builds a Converter that keeps the candidate unchanged when
// rule evaluates to true and rejects it with a ValidationError otherwise.
func ExprValidator[T any](rule string, opts ...ExprConverterOption) Converter[T] {
	e := newExprConverter(opts)
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(rule, v)
		if err != nil {
			return zero, err
		}
		accepted, isBool := result.(bool)
		if !isBool {
			return zero, wrapConverterError("expr", rule, fmt.Errorf("rule must return bool, got %T", result))
		}
		if !accepted {
			return zero, &ValidationError{Value: v, Err: fmt.Errorf("rejected by rule %q", rule)}
		}
		return v, nil
	}
}

func (e *exprConverter) run(expression string, value any) (any, error) {
	if expression == "" {
		return nil, wrapConverterError("expr", expression, fmt.Errorf("expression must not be empty"))
	}
	env := e.environment(value)
	if e.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapConverterError("expr", expression, err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapConverterError("expr", expression, err)
	}
	return result, nil
}

func (e *exprConverter) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registryNames() {
		fn := e.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapConverterError("expr", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *exprConverter) environment(value any) map[string]any {
	env := map[string]any{
		"value": value,
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (e *exprConverter) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *exprConverter) registryFunction(name string) func(...any) (any, error) {
	if e == nil || e.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
