// Package clone provides deep copies of arbitrary values for snapshots that
// must not alias live parameter state.
package clone

import "reflect"

// Value returns a deep copy of v. Pointers, structs, maps, slices, and arrays
// are duplicated recursively. Channels, funcs, and unexported struct fields
// cannot be rebuilt generically; channels and funcs are carried by reference,
// unexported fields are left at their zero value.
func Value(v any) any {
	if v == nil {
		return nil
	}
	cloned := cloneValue(reflect.ValueOf(v))
	if !cloned.IsValid() {
		return nil
	}
	return cloned.Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cloned := reflect.New(v.Type().Elem())
		cloned.Elem().Set(cloneValue(v.Elem()))
		return cloned
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		cloned := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := cloned.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return cloned
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cloned := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cloned.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return cloned
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cloned := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cloned.Index(i).Set(cloneValue(v.Index(i)))
		}
		return cloned
	case reflect.Array:
		cloned := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			cloned.Index(i).Set(cloneValue(v.Index(i)))
		}
		return cloned
	default:
		return reflect.ValueOf(v.Interface())
	}
}
