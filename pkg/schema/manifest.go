package schema

// Describer is implemented by types that declare parameter names, defaults,
// extra overloads, constructors or computed properties. DescribeSchema is
// called once, on a zero value, while the type's schema is built.
type Describer interface {
	DescribeSchema(m *Manifest)
}

// ParamSpec declares one parameter of a method or constructor
type ParamSpec struct {
	Name     string
	Optional bool
	Default  interface{}
}

// Req declares a required parameter
func Req(name string) ParamSpec {
	return ParamSpec{Name: name}
}

// Opt declares an optional parameter used with def when the caller omits it
func Opt(name string, def interface{}) ParamSpec {
	return ParamSpec{Name: name, Optional: true, Default: def}
}

type callableDecl struct {
	name   string
	fn     interface{} // nil: annotate the Go method called name
	params []ParamSpec
}

type propertyDecl struct {
	name string
	get  interface{}
	set  interface{}
}

// Manifest collects the declarations of a Describer. Declaration order is
// kept: it is the overload order within a name and the order of constructors.
type Manifest struct {
	methods      []callableDecl
	constructors []callableDecl
	properties   []propertyDecl
	hidden       []string
}

// Method names the parameters of the exported Go method called name.
func (m *Manifest) Method(name string, params ...ParamSpec) *Manifest {
	m.methods = append(m.methods, callableDecl{name: name, params: params})
	return m
}

// Overload adds fn as a further overload of name. fn takes the receiver as its
// first argument; a method expression such as (*Person).GreetFormal fits.
func (m *Manifest) Overload(name string, fn interface{}, params ...ParamSpec) *Manifest {
	m.methods = append(m.methods, callableDecl{name: name, fn: fn, params: params})
	return m
}

// Constructor declares fn, returning *T or (*T, error), as a constructor overload
func (m *Manifest) Constructor(fn interface{}, params ...ParamSpec) *Manifest {
	m.constructors = append(m.constructors, callableDecl{fn: fn, params: params})
	return m
}

// Property declares a computed property. get is func(*T) V or func(*T) (V, error);
// set is nil for a read-only property, or func(*T, V) or func(*T, V) error.
func (m *Manifest) Property(name string, get, set interface{}) *Manifest {
	m.properties = append(m.properties, propertyDecl{name: name, get: get, set: set})
	return m
}

// Hide removes exported methods or fields from the addressable surface
func (m *Manifest) Hide(names ...string) *Manifest {
	m.hidden = append(m.hidden, names...)
	return m
}
