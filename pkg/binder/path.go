package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Path binds struct fields tagged `path:"name"` from the router's path
// parameters. Only string, integer and bool fields are supported.
//
//	r.Get("/admin/codes/{code}", handler.Wrap(h.getCode,
//		handler.WithBinders[handler.Context, getCodeRequest](binder.Path(chi.URLParam)),
//	))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a non-nil pointer to struct", ErrFailedToParsePath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rv.NumField() {
			field := rv.Field(i)
			tag := rt.Field(i).Tag.Get("path")
			if !field.CanSet() || tag == "" || tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")

			value := extractor(r, name)
			if value == "" {
				continue
			}
			if err := setValue(field, value); err != nil {
				return fmt.Errorf("%w: field %s: %v", ErrFailedToParsePath, rt.Field(i).Name, err)
			}
		}
		return nil
	}
}

func setValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", value)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}
	return nil
}
