package dynamic

import (
	"reflect"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/notify"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

// Object is a domain object that can be held by a cache. Embedding
// notify.Notifier in a struct makes its pointer an Object.
type Object interface {
	Notifications() *notify.Notifier
}

// MissingArg marks a positional argument as not supplied
type MissingArg struct{}

// Missing is passed in place of a positional argument to use its default
var Missing = MissingArg{}

func isMissing(v interface{}) bool {
	_, ok := v.(MissingArg)
	return ok
}

func guard(err *error, op string) {
	if r := recover(); r != nil {
		*err = errors.FromPanic(r, op)
	}
}

func resolve(obj interface{}) (reflect.Value, *schema.Schema, error) {
	if obj == nil {
		return reflect.Value{}, nil, errors.New(errors.ErrInvalidInput, "object is nil")
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, nil, errors.Newf(errors.ErrInvalidInput, "%T is not a non-nil pointer", obj)
	}
	s, err := schema.Of(v.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return v, s, nil
}

func property(obj interface{}, name string) (reflect.Value, *schema.Property, error) {
	v, s, err := resolve(obj)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	p, ok := s.Property(name)
	if !ok {
		return reflect.Value{}, nil, errors.Newf(errors.ErrPropertyNotFound, "%s has no property %q", s.Name(), name).
			WithDetail("type", s.Name()).
			WithDetail("property", name)
	}
	return v, p, nil
}

// Get returns the current value of the named property
func Get(obj interface{}, name string) (value interface{}, err error) {
	defer guard(&err, "get")

	v, p, err := property(obj, name)
	if err != nil {
		return nil, err
	}
	return read(v, p)
}

func read(v reflect.Value, p *schema.Property) (interface{}, error) {
	out, err := p.Read(v)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Set assigns value to the named property. The value is converted to the
// property type first; when that fails the property keeps its prior value.
// Subscribers are notified when the stored value changed.
func Set(obj interface{}, name string, value interface{}) (err error) {
	defer guard(&err, "set")

	v, p, err := property(obj, name)
	if err != nil {
		return err
	}
	return write(obj, v, p, value)
}

func write(obj interface{}, v reflect.Value, p *schema.Property, value interface{}) error {
	if p.ReadOnly {
		return errors.Newf(errors.ErrReadOnly, "property %s is read-only", p.Name).
			WithDetail("property", p.Name)
	}
	nv, err := schema.Coerce(value, p.Type)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTypeMismatch, "cannot set %s", p.Name).
			WithDetail("property", p.Name)
	}

	old, readErr := read(v, p)
	if err := p.Write(v, nv); err != nil {
		return err
	}
	if readErr != nil || !reflect.DeepEqual(old, nv.Interface()) {
		changed(obj, p.Name)
	}
	return nil
}

func changed(obj interface{}, property string) {
	if o, ok := obj.(notify.Observable); ok {
		o.Notifications().Notify(obj, property)
	}
}

// Getter resolves the named property once and returns a reader bound to obj
func Getter(obj interface{}, name string) (get func() (interface{}, error), err error) {
	defer guard(&err, "getter")

	v, p, err := property(obj, name)
	if err != nil {
		return nil, err
	}
	return func() (value interface{}, err error) {
		defer guard(&err, "get")
		return read(v, p)
	}, nil
}

// Setter resolves the named property once and returns a writer bound to obj
func Setter(obj interface{}, name string) (set func(interface{}) error, err error) {
	defer guard(&err, "setter")

	v, p, err := property(obj, name)
	if err != nil {
		return nil, err
	}
	return func(value interface{}) (err error) {
		defer guard(&err, "set")
		return write(obj, v, p, value)
	}, nil
}

// Notify reports a change made outside Set, such as by a domain method
func Notify(obj Object, property string) {
	obj.Notifications().Notify(obj, property)
}
