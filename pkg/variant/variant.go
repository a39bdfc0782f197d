// Package variant provides a discriminated value type with checked conversions.
package variant

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/bitwelder/stew/internal/constant"
)

const (
	// ErrInvalid is returned when reading a variant that holds no value.
	ErrInvalid constant.Error = "variant: the variant holds no value"
	// ErrConversion is returned when the held value cannot represent the requested type.
	ErrConversion constant.Error = "variant: conversion failed"
)

// Variant is a container for a single value of any type.
//
// The zero Variant is invalid: it holds no value, and reading it errors.
// Reading the value back with As converts between the basic kinds
// (strings, booleans, integers and floats) when an exact match is not possible.
type Variant struct {
	value any
}

// Of creates a Variant holding the given value.
func Of(value any) Variant {
	return Variant{value: value}
}

// IsValid reports whether the variant holds a value.
func (v Variant) IsValid() bool { return v.value != nil }

// Value returns the held value as is.
func (v Variant) Value() any { return v.value }

// Type returns the dynamic type of the held value, or nil for an invalid variant.
func (v Variant) Type() reflect.Type { return reflect.TypeOf(v.value) }

// String renders the held value for diagnostics.
func (v Variant) String() string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%v", v.value)
}

// Is reports whether the variant holds a value of the exact type T.
func Is[T any](v Variant) bool {
	_, ok := v.value.(T)
	return ok
}

// As returns the held value as T.
//
// A value of the exact type is returned as is; otherwise As converts between
// the basic kinds, so a Variant holding "42" reads back as int 42, and one
// holding true reads back as the string "true".
func As[T any](v Variant) (T, error) {
	var zero T
	if !v.IsValid() {
		return zero, ErrInvalid
	}
	if value, ok := v.value.(T); ok {
		return value, nil
	}
	rv, err := convert(reflect.ValueOf(v.value), reflect.TypeOf(&zero).Elem())
	if err != nil {
		return zero, err
	}
	value, ok := rv.Interface().(T)
	if !ok {
		return zero, ErrConversion.F("%T to %T", v.value, zero)
	}
	return value, nil
}

// MustAs is like As, but panics when the conversion is not possible.
func MustAs[T any](v Variant) T {
	value, err := As[T](v)
	if err != nil {
		panic(err)
	}
	return value
}

func convert(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	switch dst.Kind() {
	case reflect.String:
		return toString(src, dst)
	case reflect.Bool:
		return toBool(src, dst)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return toInt(src, dst)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return toUint(src, dst)
	case reflect.Float32, reflect.Float64:
		return toFloat(src, dst)
	default:
		if src.Type().ConvertibleTo(dst) {
			return src.Convert(dst), nil
		}
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
}

func toString(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	var out string
	switch src.Kind() {
	case reflect.String:
		out = src.String()
	case reflect.Bool:
		out = strconv.FormatBool(src.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out = strconv.FormatInt(src.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out = strconv.FormatUint(src.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		out = strconv.FormatFloat(src.Float(), 'f', -1, 64)
	default:
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
	return reflect.ValueOf(out).Convert(dst), nil
}

func toBool(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	var out bool
	switch src.Kind() {
	case reflect.Bool:
		out = src.Bool()
	case reflect.String:
		b, err := strconv.ParseBool(src.String())
		if err != nil {
			return reflect.Value{}, ErrConversion.Wrap(err)
		}
		out = b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out = src.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out = src.Uint() != 0
	case reflect.Float32, reflect.Float64:
		out = src.Float() != 0
	default:
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
	return reflect.ValueOf(out).Convert(dst), nil
}

func toInt(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	var out int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out = int64(src.Uint())
	case reflect.Float32, reflect.Float64:
		out = int64(src.Float())
	case reflect.Bool:
		if src.Bool() {
			out = 1
		}
	case reflect.String:
		n, err := strconv.ParseInt(src.String(), 10, 64)
		if err != nil {
			return reflect.Value{}, ErrConversion.Wrap(err)
		}
		out = n
	default:
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
	rv := reflect.New(dst).Elem()
	if rv.OverflowInt(out) {
		return reflect.Value{}, ErrConversion.F("%d overflows %s", out, dst)
	}
	rv.SetInt(out)
	return rv, nil
}

func toUint(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	var out uint64
	switch src.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out = src.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := src.Int()
		if n < 0 {
			return reflect.Value{}, ErrConversion.F("%d to %s", n, dst)
		}
		out = uint64(n)
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f < 0 {
			return reflect.Value{}, ErrConversion.F("%v to %s", f, dst)
		}
		out = uint64(f)
	case reflect.Bool:
		if src.Bool() {
			out = 1
		}
	case reflect.String:
		n, err := strconv.ParseUint(src.String(), 10, 64)
		if err != nil {
			return reflect.Value{}, ErrConversion.Wrap(err)
		}
		out = n
	default:
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
	rv := reflect.New(dst).Elem()
	if rv.OverflowUint(out) {
		return reflect.Value{}, ErrConversion.F("%d overflows %s", out, dst)
	}
	rv.SetUint(out)
	return rv, nil
}

func toFloat(src reflect.Value, dst reflect.Type) (reflect.Value, error) {
	var out float64
	switch src.Kind() {
	case reflect.Float32, reflect.Float64:
		out = src.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out = float64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out = float64(src.Uint())
	case reflect.Bool:
		if src.Bool() {
			out = 1
		}
	case reflect.String:
		f, err := strconv.ParseFloat(src.String(), 64)
		if err != nil {
			return reflect.Value{}, ErrConversion.Wrap(err)
		}
		out = f
	default:
		return reflect.Value{}, ErrConversion.F("%s to %s", src.Type(), dst)
	}
	rv := reflect.New(dst).Elem()
	rv.SetFloat(out)
	return rv, nil
}
