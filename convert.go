package params

import (
	"fmt"
	"reflect"
)

// Converter normalizes or rejects candidate values before they reach a
// parameter. It runs on the default at construction and ahead of every Set,
// Parameterize, and Bind; returning an error aborts the operation with no
// state change. Converters must not touch the parameter they guard.
type Converter[T any] func(T) (T, error)

// ConvertChain composes converters left to right, feeding each one the output
// of the previous. The first error stops the chain.
func ConvertChain[T any](converters ...Converter[T]) Converter[T] {
	return func(v T) (T, error) {
		var err error
		for _, convert := range converters {
			if convert == nil {
				continue
			}
			v, err = convert(v)
			if err != nil {
				var zero T
				return zero, err
			}
		}
		return v, nil
	}
}

// coerce adapts an expression result to T. Exact matches pass through;
// mismatched numeric kinds are bridged since the engines disagree on them
// (cel yields int64, expr and goja yield int or float64). Fractional values
// truncate when bridged to integer kinds. Everything else is an error.
func coerce[T any](value any) (T, error) {
	var zero T
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	target := reflect.TypeOf(&zero).Elem()
	if value == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return zero, nil
		}
		return zero, fmt.Errorf("cannot use nil as %s", target)
	}
	rv := reflect.ValueOf(value)
	if isNumericKind(rv.Kind()) && isNumericKind(target.Kind()) && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface().(T), nil
	}
	return zero, fmt.Errorf("cannot use %T as %s", value, target)
}

func wrapConverterError(engine, expression string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("params: %s converter %s: %w", engine, describeExpression(expression), err)
}

func describeExpression(expression string) string {
	if expression == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expression)
}

func isNumericKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
