package schema

import (
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

// Coerce converts value to the target type without weak conversions.
// Assignable values are used as is; numeric values may change width when no
// precision is lost; maps and structs are decoded field by field. Strings are
// never parsed into numbers or booleans.
func Coerce(value interface{}, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		if nillable(target.Kind()) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, errors.Newf(errors.ErrTypeMismatch, "cannot assign nil to %s", target)
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(v)
		return out, nil
	}
	if target.Kind() == reflect.Interface {
		return reflect.Value{}, errors.Newf(errors.ErrTypeMismatch, "%s does not implement %s", v.Type(), target)
	}
	if err := checkNumeric(v, target); err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(target)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out.Interface(),
		ErrorUnused: true,
	})
	if err != nil {
		return reflect.Value{}, errors.Wrap(err, errors.ErrInternal, "failed to create decoder")
	}
	if err := decoder.Decode(value); err != nil {
		return reflect.Value{}, errors.Wrapf(err, errors.ErrTypeMismatch, "cannot assign %s to %s", v.Type(), target)
	}
	return out.Elem(), nil
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// checkNumeric rejects numeric conversions that would overflow or truncate
func checkNumeric(v reflect.Value, target reflect.Type) error {
	src, dst := v.Kind(), target.Kind()
	probe := reflect.New(target).Elem()
	mismatch := func() error {
		return errors.Newf(errors.ErrTypeMismatch, "value %v does not fit in %s", v.Interface(), target)
	}

	switch {
	case isInt(dst):
		switch {
		case isInt(src):
			if probe.OverflowInt(v.Int()) {
				return mismatch()
			}
		case isUint(src):
			if v.Uint() > math.MaxInt64 || probe.OverflowInt(int64(v.Uint())) {
				return mismatch()
			}
		case isFloat(src):
			f := v.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= 1<<63 || probe.OverflowInt(int64(f)) {
				return mismatch()
			}
		}
	case isUint(dst):
		switch {
		case isInt(src):
			if v.Int() < 0 || probe.OverflowUint(uint64(v.Int())) {
				return mismatch()
			}
		case isUint(src):
			if probe.OverflowUint(v.Uint()) {
				return mismatch()
			}
		case isFloat(src):
			f := v.Float()
			if f != math.Trunc(f) || f < 0 || f >= 1<<64 || probe.OverflowUint(uint64(f)) {
				return mismatch()
			}
		}
	case dst == reflect.Float32 && isFloat(src):
		if probe.OverflowFloat(v.Float()) {
			return mismatch()
		}
	}
	return nil
}
