//go:build !js_eval

package params

// JSConverter is unavailable without the js_eval build tag; the returned nil
// Converter leaves values unchanged.
func JSConverter[T any](expression string, opts ...JSConverterOption) Converter[T] {
	_ = applyJSConverterOptions(opts)
	return nil
}

// JSValidator is unavailable without the js_eval build tag; the returned nil
// Converter leaves values unchanged.
func JSValidator[T any](rule string, opts ...JSConverterOption) Converter[T] {
	_ = applyJSConverterOptions(opts)
	return nil
}

func jsConverterAvailable() bool {
	return false
}
