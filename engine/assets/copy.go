package assets

import "reflect"

// deepCopy copies slices, arrays, maps, pointers and exported struct
// fields recursively. Unexported fields are copied as they are.
func deepCopy[T any](v T) T {
	src := reflect.ValueOf(&v).Elem()
	out, _ := copyValue(src, make(map[visit]reflect.Value)).Interface().(T)
	return out
}

// visit identifies a pointer already copied, so cycles terminate.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

func copyValue(v reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i), seen))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value(), seen))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if c, ok := seen[key]; ok {
			return c
		}
		out := reflect.New(v.Type().Elem())
		seen[key] = out
		out.Elem().Set(copyValue(v.Elem(), seen))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(copyValue(v.Elem(), seen))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(copyValue(v.Field(i), seen))
			}
		}
		return out
	default:
		return v
	}
}
