package schema

import (
	"reflect"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param is one parameter of a Callable
type Param struct {
	Name     string
	Key      string
	Type     reflect.Type
	Optional bool
	Default  reflect.Value
}

// Callable is one method or constructor overload
type Callable struct {
	Name   string
	Params []Param

	fn       reflect.Value
	receiver bool
}

// RequiredKeys returns the folded names of the parameters without a default
func (c *Callable) RequiredKeys() []string {
	keys := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		if !p.Optional {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Call invokes the callable. recv is ignored for constructors. args must
// already match the parameter types. A non-nil error result of the
// underlying function is returned wrapped as INVOCATION_FAILED.
func (c *Callable) Call(recv reflect.Value, args []reflect.Value) (interface{}, error) {
	in := args
	if c.receiver {
		in = append([]reflect.Value{recv}, args...)
	}

	var out []reflect.Value
	if c.fn.Type().IsVariadic() {
		out = c.fn.CallSlice(in)
	} else {
		out = c.fn.Call(in)
	}
	return results(out, c.Name)
}

func results(out []reflect.Value, name string) (interface{}, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			return nil, errors.Wrapf(last.Interface().(error), errors.ErrInvocation, "%s returned an error", name)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// Property describes one addressable property
type Property struct {
	Name     string
	Key      string
	Type     reflect.Type
	ReadOnly bool

	index []int
	get   reflect.Value
	set   reflect.Value
}

// Read returns the property's current value on target, a pointer to the struct
func (p *Property) Read(target reflect.Value) (reflect.Value, error) {
	if p.get.IsValid() {
		out, err := results(p.get.Call([]reflect.Value{target}), p.Name)
		if err != nil {
			return reflect.Value{}, err
		}
		if out == nil {
			return reflect.Zero(p.Type), nil
		}
		return reflect.ValueOf(out), nil
	}

	field, err := target.Elem().FieldByIndexErr(p.index)
	if err != nil {
		return reflect.Value{}, errors.Wrapf(err, errors.ErrInternal, "cannot reach field %s", p.Name)
	}
	return field, nil
}

// Write assigns v, which must already have the property's type
func (p *Property) Write(target reflect.Value, v reflect.Value) error {
	if p.ReadOnly {
		return errors.Newf(errors.ErrReadOnly, "property %s is read-only", p.Name)
	}
	if p.set.IsValid() {
		_, err := results(p.set.Call([]reflect.Value{target, v}), p.Name)
		return err
	}

	field, err := target.Elem().FieldByIndexErr(p.index)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot reach field %s", p.Name)
	}
	field.Set(v)
	return nil
}

// Schema is the immutable member table of one pointer-to-struct type
type Schema struct {
	Type reflect.Type

	properties   map[string]*Property
	propOrder    []*Property
	methods      map[string][]*Callable
	methodOrder  []string
	constructors []*Callable
}

// Name returns the struct type name
func (s *Schema) Name() string {
	return s.Type.Elem().Name()
}

// Property looks a property up by case-insensitive name
func (s *Schema) Property(name string) (*Property, bool) {
	p, ok := s.properties[Fold(name)]
	return p, ok
}

// Properties returns all properties in declaration order
func (s *Schema) Properties() []*Property {
	out := make([]*Property, len(s.propOrder))
	copy(out, s.propOrder)
	return out
}

// Overloads returns the overload group of a method, in declared order
func (s *Schema) Overloads(name string) ([]*Callable, bool) {
	group, ok := s.methods[Fold(name)]
	return group, ok
}

// Methods returns the declared method names, one per overload group
func (s *Schema) Methods() []string {
	out := make([]string, len(s.methodOrder))
	copy(out, s.methodOrder)
	return out
}

// Constructors returns the constructor overloads in declared order
func (s *Schema) Constructors() []*Callable {
	out := make([]*Callable, len(s.constructors))
	copy(out, s.constructors)
	return out
}
