package dynamic

import (
	"reflect"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

func overloads(obj interface{}, name string) (reflect.Value, []*schema.Callable, error) {
	v, s, err := resolve(obj)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	group, ok := s.Overloads(name)
	if !ok {
		return reflect.Value{}, nil, errors.Newf(errors.ErrMethodNotFound, "%s has no method %q", s.Name(), name).
			WithDetail("type", s.Name()).
			WithDetail("method", name)
	}
	return v, group, nil
}

// Invoke calls the first declared overload of the named method with
// positional arguments. Trailing arguments may be left out, and Missing may be
// passed in any position, for parameters that declare a default.
func Invoke(obj interface{}, name string, args ...interface{}) (result interface{}, err error) {
	defer guard(&err, "invoke")

	v, group, err := overloads(obj, name)
	if err != nil {
		return nil, err
	}
	c := group[0]
	in, err := bindPositional(c, args)
	if err != nil {
		return nil, err
	}
	return c.Call(v, in)
}

// InvokeNamed calls the overload of the named method that best matches the
// argument names. Argument names are matched case-insensitively; names that
// no parameter uses are ignored.
func InvokeNamed(obj interface{}, name string, args map[string]interface{}) (result interface{}, err error) {
	defer guard(&err, "invoke_named")

	v, group, err := overloads(obj, name)
	if err != nil {
		return nil, err
	}
	folded, err := foldArgs(args)
	if err != nil {
		return nil, err
	}
	idx, score := SelectOverload(group, folded)
	logger := logging.GetLogger("dynamic")
	logger.Debug().Str("method", name).Int("overload", idx).Int("score", score).Msg("Overload selected")

	in, err := bindNamed(group[idx], folded, errors.ErrInvocation)
	if err != nil {
		return nil, err
	}
	return group[idx].Call(v, in)
}

// Construct builds an instance of t, a struct or pointer-to-struct type, with
// the constructor overload that best matches the argument names.
func Construct(t reflect.Type, args map[string]interface{}) (instance interface{}, err error) {
	defer guard(&err, "construct")

	s, err := schema.Of(t)
	if err != nil {
		return nil, err
	}
	ctors := s.Constructors()
	if len(ctors) == 0 {
		return nil, errors.Newf(errors.ErrConstructorUnsatisfiable, "%s has no constructors", s.Name())
	}
	folded, err := foldArgs(args)
	if err != nil {
		return nil, err
	}
	idx, score := SelectOverload(ctors, folded)
	logger := logging.GetLogger("dynamic")
	logger.Debug().Str("type", s.Name()).Int("overload", idx).Int("score", score).Msg("Constructor selected")

	in, err := bindNamed(ctors[idx], folded, errors.ErrConstructorUnsatisfiable)
	if err != nil {
		return nil, err
	}
	out, err := ctors[idx].Call(reflect.Value{}, in)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConstructorUnsatisfiable, "%s constructor failed", s.Name())
	}
	if out == nil || reflect.ValueOf(out).IsNil() {
		return nil, errors.Newf(errors.ErrConstructorUnsatisfiable, "%s constructor returned nil", s.Name())
	}
	return out, nil
}

// ConstructNamed is Construct for a static pointer type such as *Person
func ConstructNamed[T any](args map[string]interface{}) (T, error) {
	var zero T
	out, err := Construct(reflect.TypeOf((*T)(nil)).Elem(), args)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, errors.Newf(errors.ErrTypeMismatch, "constructor produced %T, not %T", out, zero)
	}
	return typed, nil
}

// SelectOverload returns the index of the overload whose required parameter
// names intersect the supplied names the most, and that intersection size.
// Overloads are scanned in declared order and only a strictly greater score
// replaces the current choice, so the first declared overload wins ties.
func SelectOverload(candidates []*schema.Callable, args map[string]interface{}) (index, score int) {
	index, score = 0, -1
	for i, c := range candidates {
		s := 0
		for _, key := range c.RequiredKeys() {
			if _, ok := args[key]; ok {
				s++
			}
		}
		if s > score {
			index, score = i, s
		}
	}
	return index, score
}

func foldArgs(args map[string]interface{}) (map[string]interface{}, error) {
	folded := make(map[string]interface{}, len(args))
	for name, value := range args {
		key := schema.Fold(name)
		if _, dup := folded[key]; dup {
			return nil, errors.Newf(errors.ErrInvalidInput, "argument %q given more than once", name)
		}
		folded[key] = value
	}
	return folded, nil
}

func bindNamed(c *schema.Callable, args map[string]interface{}, code errors.ErrorCode) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(c.Params))
	for i, p := range c.Params {
		value, ok := args[p.Key]
		if ok && isMissing(value) {
			ok = false
		}
		switch {
		case ok:
			v, err := schema.Coerce(value, p.Type)
			if err != nil {
				return nil, errors.Wrapf(err, code, "argument %s of %s", p.Name, c.Name).
					WithDetail("argument", p.Name)
			}
			in[i] = v
		case p.Optional:
			in[i] = p.Default
		default:
			return nil, errors.Newf(code, "%s requires argument %s", c.Name, p.Name).
				WithDetail("argument", p.Name)
		}
	}
	return in, nil
}

func bindPositional(c *schema.Callable, args []interface{}) ([]reflect.Value, error) {
	if len(args) > len(c.Params) {
		return nil, errors.Newf(errors.ErrInvocation, "%s takes at most %d arguments, got %d", c.Name, len(c.Params), len(args))
	}
	in := make([]reflect.Value, len(c.Params))
	for i, p := range c.Params {
		supplied := i < len(args) && !isMissing(args[i])
		switch {
		case supplied:
			v, err := schema.Coerce(args[i], p.Type)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvocation, "argument %d of %s", i, c.Name).
					WithDetail("argument", p.Name)
			}
			in[i] = v
		case p.Optional:
			in[i] = p.Default
		default:
			return nil, errors.Newf(errors.ErrInvocation, "%s requires argument %s", c.Name, p.Name).
				WithDetail("argument", p.Name)
		}
	}
	return in, nil
}
