package dynamic

import (
	"reflect"
	"sort"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/registry"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

type typeEntry struct {
	name string
	ptr  reflect.Type
}

var catalog = registry.New[typeEntry]()

// RegisterType makes the type of prototype constructible by name through New.
// The prototype must be a pointer to a struct that implements Object. Its
// schema is built here so a broken manifest fails at registration.
func RegisterType(name string, prototype Object) error {
	if prototype == nil {
		return errors.New(errors.ErrInvalidInput, "prototype is nil")
	}
	t := reflect.TypeOf(prototype)
	if _, err := schema.Of(t); err != nil {
		return err
	}
	if err := catalog.Register(schema.Fold(name), typeEntry{name: name, ptr: t}); err != nil {
		return errors.Wrapf(err, errors.ErrDuplicateKey, "type %s already registered", name)
	}
	return nil
}

// MustRegisterType is RegisterType for package init code
func MustRegisterType(name string, prototype Object) {
	if err := RegisterType(name, prototype); err != nil {
		panic(err)
	}
}

// LookupType returns the pointer type registered under name
func LookupType(name string) (reflect.Type, bool) {
	e, ok := catalog.Lookup(schema.Fold(name))
	if !ok {
		return nil, false
	}
	return e.ptr, true
}

// TypeNames returns the registered type names, sorted
func TypeNames() []string {
	entries := catalog.Entries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Item.name)
	}
	sort.Strings(names)
	return names
}

// New constructs an instance of a registered type with named arguments
func New(typeName string, args map[string]interface{}) (Object, error) {
	t, ok := LookupType(typeName)
	if !ok {
		return nil, errors.Newf(errors.ErrKeyNotFound, "unknown type %q", typeName).
			WithDetail("type", typeName)
	}
	out, err := Construct(t, args)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(Object)
	if !ok {
		return nil, errors.Newf(errors.ErrTypeMismatch, "%s is not an object", typeName)
	}
	return obj, nil
}
