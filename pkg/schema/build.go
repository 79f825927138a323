package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/notify"
)

const tagName = "dyn"

var (
	observableType = reflect.TypeOf((*notify.Observable)(nil)).Elem()
	describerType  = reflect.TypeOf((*Describer)(nil)).Elem()
	notifierType   = reflect.TypeOf((*notify.Notifier)(nil))
)

type builder struct {
	ptr      reflect.Type
	schema   *Schema
	manifest Manifest
	hidden   map[string]bool
}

func build(ptr reflect.Type) (s *Schema, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(errors.FromPanic(r, "schema build"), errors.ErrSchemaInvalid,
				fmt.Sprintf("cannot build schema for %s", ptr))
		}
	}()

	b := &builder{
		ptr: ptr,
		schema: &Schema{
			Type:       ptr,
			properties: make(map[string]*Property),
			methods:    make(map[string][]*Callable),
		},
		hidden: make(map[string]bool),
	}

	if ptr.Implements(describerType) {
		reflect.New(ptr.Elem()).Interface().(Describer).DescribeSchema(&b.manifest)
	}
	for _, name := range b.manifest.hidden {
		b.hidden[Fold(name)] = true
	}
	if ptr.Implements(observableType) {
		for i := 0; i < notifierType.NumMethod(); i++ {
			b.hidden[Fold(notifierType.Method(i).Name)] = true
		}
	}
	b.hidden[Fold("DescribeSchema")] = true

	steps := []func() error{b.fields, b.computed, b.methods, b.constructors}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return b.schema, nil
}

func (b *builder) invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrSchemaInvalid, "%s: %s", b.ptr, fmt.Sprintf(format, args...))
}

func (b *builder) addProperty(p *Property) error {
	if _, dup := b.schema.properties[p.Key]; dup {
		return b.invalid("duplicate property %s", p.Name)
	}
	b.schema.properties[p.Key] = p
	b.schema.propOrder = append(b.schema.propOrder, p)
	return nil
}

// fields registers exported struct fields, including promoted ones
func (b *builder) fields() error {
	for _, f := range reflect.VisibleFields(b.ptr.Elem()) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name, readOnly := f.Name, false
		if tag, ok := f.Tag.Lookup(tagName); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if strings.TrimSpace(opt) == "readonly" {
					readOnly = true
				}
			}
		}
		if b.hidden[Fold(name)] {
			continue
		}
		err := b.addProperty(&Property{
			Name:     name,
			Key:      Fold(name),
			Type:     f.Type,
			ReadOnly: readOnly,
			index:    f.Index,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// computed registers properties declared through Manifest.Property
func (b *builder) computed() error {
	for _, decl := range b.manifest.properties {
		get := reflect.ValueOf(decl.get)
		gt := get.Type()
		if gt.Kind() != reflect.Func || gt.NumIn() != 1 || !b.ptr.AssignableTo(gt.In(0)) ||
			gt.NumOut() == 0 || gt.NumOut() > 2 || (gt.NumOut() == 2 && gt.Out(1) != errorType) {
			return b.invalid("getter of %s must be func(%s) V or func(%s) (V, error)", decl.name, b.ptr, b.ptr)
		}
		p := &Property{
			Name:     decl.name,
			Key:      Fold(decl.name),
			Type:     gt.Out(0),
			ReadOnly: decl.set == nil,
			get:      get,
		}
		if decl.set != nil {
			set := reflect.ValueOf(decl.set)
			st := set.Type()
			if st.Kind() != reflect.Func || st.NumIn() != 2 || !b.ptr.AssignableTo(st.In(0)) ||
				st.In(1) != p.Type || st.NumOut() > 1 || (st.NumOut() == 1 && st.Out(0) != errorType) {
				return b.invalid("setter of %s must be func(%s, %s) [error]", decl.name, b.ptr, p.Type)
			}
			p.set = set
		}
		if err := b.addProperty(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addMethod(name string, c *Callable) {
	key := Fold(name)
	if _, seen := b.schema.methods[key]; !seen {
		b.schema.methodOrder = append(b.schema.methodOrder, name)
	}
	b.schema.methods[key] = append(b.schema.methods[key], c)
}

// methods registers declared overloads first, then the remaining exported methods
func (b *builder) methods() error {
	goMethods := make(map[string]reflect.Method)
	for i := 0; i < b.ptr.NumMethod(); i++ {
		m := b.ptr.Method(i)
		if !b.hidden[Fold(m.Name)] {
			goMethods[Fold(m.Name)] = m
		}
	}

	annotated := make(map[string]bool)
	for _, decl := range b.manifest.methods {
		var fn reflect.Value
		if decl.fn == nil {
			m, ok := goMethods[Fold(decl.name)]
			if !ok {
				return b.invalid("no exported method %s", decl.name)
			}
			if annotated[Fold(decl.name)] {
				return b.invalid("method %s annotated twice", decl.name)
			}
			annotated[Fold(decl.name)] = true
			fn = m.Func
		} else {
			fn = reflect.ValueOf(decl.fn)
			ft := fn.Type()
			if ft.Kind() != reflect.Func || ft.NumIn() == 0 || !b.ptr.AssignableTo(ft.In(0)) {
				return b.invalid("overload of %s must take %s as first argument", decl.name, b.ptr)
			}
		}

		params, err := b.params(decl.name, fn.Type(), 1, decl.params)
		if err != nil {
			return err
		}
		b.addMethod(decl.name, &Callable{Name: decl.name, Params: params, fn: fn, receiver: true})
	}

	for i := 0; i < b.ptr.NumMethod(); i++ {
		m := b.ptr.Method(i)
		key := Fold(m.Name)
		if _, ok := goMethods[key]; !ok || annotated[key] {
			continue
		}
		params, err := b.params(m.Name, m.Type, 1, nil)
		if err != nil {
			return err
		}
		b.addMethod(m.Name, &Callable{Name: m.Name, Params: params, fn: m.Func, receiver: true})
	}
	return nil
}

// constructors registers declared constructors, or synthesizes one over the
// writable properties when none are declared
func (b *builder) constructors() error {
	if len(b.manifest.constructors) == 0 {
		b.schema.constructors = []*Callable{b.fieldConstructor()}
		return nil
	}

	for _, decl := range b.manifest.constructors {
		fn := reflect.ValueOf(decl.fn)
		ft := fn.Type()
		if ft.Kind() != reflect.Func || ft.NumOut() == 0 || ft.NumOut() > 2 ||
			!ft.Out(0).AssignableTo(b.ptr) || (ft.NumOut() == 2 && ft.Out(1) != errorType) {
			return b.invalid("constructor must return %s or (%s, error)", b.ptr, b.ptr)
		}
		name := b.schema.Name()
		params, err := b.params(name, ft, 0, decl.params)
		if err != nil {
			return err
		}
		b.schema.constructors = append(b.schema.constructors, &Callable{Name: name, Params: params, fn: fn})
	}
	return nil
}

func (b *builder) fieldConstructor() *Callable {
	var writable []*Property
	var in []reflect.Type
	var params []Param
	for _, p := range b.schema.propOrder {
		if p.ReadOnly {
			continue
		}
		writable = append(writable, p)
		in = append(in, p.Type)
		params = append(params, Param{Name: p.Name, Key: p.Key, Type: p.Type, Optional: true, Default: reflect.Zero(p.Type)})
	}

	ft := reflect.FuncOf(in, []reflect.Type{b.ptr, errorType}, false)
	elem := b.ptr.Elem()
	fn := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		obj := reflect.New(elem)
		for i, p := range writable {
			if err := p.Write(obj, args[i]); err != nil {
				return []reflect.Value{reflect.Zero(b.ptr), reflect.ValueOf(&err).Elem()}
			}
		}
		return []reflect.Value{obj, reflect.Zero(errorType)}
	})
	return &Callable{Name: b.schema.Name(), Params: params, fn: fn}
}

// params pairs declared names with the parameter types of ft, skipping the
// first offset inputs (the receiver)
func (b *builder) params(name string, ft reflect.Type, offset int, specs []ParamSpec) ([]Param, error) {
	n := ft.NumIn() - offset
	if len(specs) == 0 {
		specs = make([]ParamSpec, n)
		for i := range specs {
			specs[i] = Req(fmt.Sprintf("arg%d", i))
		}
	}
	if len(specs) != n {
		return nil, b.invalid("%s declares %d parameters, function takes %d", name, len(specs), n)
	}

	params := make([]Param, n)
	seen := make(map[string]bool, n)
	for i, spec := range specs {
		p := Param{
			Name:     spec.Name,
			Key:      Fold(spec.Name),
			Type:     ft.In(i + offset),
			Optional: spec.Optional,
		}
		if seen[p.Key] {
			return nil, b.invalid("%s declares parameter %s twice", name, spec.Name)
		}
		seen[p.Key] = true
		if spec.Optional {
			def, err := Coerce(spec.Default, p.Type)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrSchemaInvalid, "%s: default of %s.%s", b.ptr, name, spec.Name)
			}
			p.Default = def
		}
		params[i] = p
	}
	return params, nil
}
