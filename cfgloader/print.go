package cfgloader

import (
	"log/slog"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

func printConfig(cfg any) {
	out, err := yaml.Marshal(Masked(cfg))
	if err != nil {
		slog.Error("[cfgloader]: failed to marshal config", "error", err.Error())
		return
	}
	slog.Info("[cfgloader]: loaded config:\n" + string(out))
}

// Masked returns a copy of cfg where every field tagged `mask:"true"` is
// hidden: strings become asterisks, other scalars their zero value.
func Masked(cfg any) any {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return maskValue(v, false).Interface()
}

func maskValue(v reflect.Value, hide bool) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() { //nolint:exhaustive // remaining kinds are copied or zeroed
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		ptr := reflect.New(v.Elem().Type())
		ptr.Elem().Set(maskValue(v.Elem(), hide))
		return ptr

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return maskValue(v.Elem(), hide)

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := range v.NumField() {
			if !out.Field(i).CanSet() {
				continue
			}
			fieldHide := hide || v.Type().Field(i).Tag.Get("mask") == "true"
			out.Field(i).Set(maskValue(v.Field(i), fieldHide))
		}
		return out

	case reflect.String:
		if hide {
			return reflect.ValueOf(strings.Repeat("*", v.Len())).Convert(v.Type())
		}
		return v

	case reflect.Map, reflect.Slice, reflect.Array:
		if hide {
			return reflect.Zero(v.Type())
		}
		return v

	default:
		if hide {
			return reflect.Zero(v.Type())
		}
		return v
	}
}
