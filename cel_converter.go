package params

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELConverterOption configures a CEL converter instance.
type CELConverterOption func(*celConverter)

// CELWithProgramCache wires a ProgramCache into the CEL converter.
func CELWithProgramCache(cache ProgramCache) CELConverterOption {
	return func(e *celConverter) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL converter.
// Registry functions are reachable through call("name", arg).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELConverterOption {
	return func(e *celConverter) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// celConverter executes rule expressions using github.com/google/cel-go.
type celConverter struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

func newCELConverter(opts []CELConverterOption) *celConverter {
	e := &celConverter{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// CELConverter builds a Converter that pipes every candidate value through
// expression and adopts the result. The candidate is bound as value.
func CELConverter[T any](expression string, opts ...CELConverterOption) Converter[T] {
	e := newCELConverter(opts)
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(expression, v)
		if err != nil {
			return zero, err
		}
		converted, err := coerce[T](result)
		if err != nil {
			return zero, wrapConverterError("cel", expression, err)
		}
		return converted, nil
	}
}

// CELValidator builds a Converter that keeps the candidate unchanged when
// rule evaluates to true and rejects it with a ValidationError otherwise.
func CELValidator[T any](rule string, opts ...CELConverterOption) Converter[T] {
	e := newCELConverter(opts)
	return func(v T) (T, error) {
		var zero T
		result, err := e.run(rule, v)
		if err != nil {
			return zero, err
		}
		accepted, isBool := result.(bool)
		if !isBool {
			return zero, wrapConverterError("cel", rule, fmt.Errorf("rule must return bool, got %T", result))
		}
		if !accepted {
			return zero, &ValidationError{Value: v, Err: fmt.Errorf("rejected by rule %q", rule)}
		}
		return v, nil
	}
}

func (e *celConverter) run(expression string, value any) (any, error) {
	if expression == "" {
		return nil, wrapConverterError("cel", expression, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(map[string]any{
		"value": value,
	})
	if err != nil {
		return nil, wrapConverterError("cel", expression, err)
	}
	return out.Value(), nil
}

func (e *celConverter) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapConverterError("cel", expression, err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapConverterError("cel", expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapConverterError("cel", expression, issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapConverterError("cel", expression, err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celConverter) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_name",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.FunctionBinding(e.callBinding()),
			),
			celgo.Overload("call_name_arg",
				[]*celgo.Type{celgo.StringType, celgo.DynType},
				celgo.DynType,
				celgo.FunctionBinding(e.callBinding()),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celConverter) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("params: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("params: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("params: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
