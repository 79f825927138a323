// Package schema discovers, once per concrete type, the members that can be
// addressed by name: properties (exported struct fields plus declared
// computed properties), method overload groups, and constructor overloads.
//
// Go keeps neither parameter names nor default values at runtime and has no
// overloading, so a type may implement Describer to declare them:
//
//	func (p *Person) DescribeSchema(m *schema.Manifest) {
//	    m.Method("AgePlus", schema.Opt("add", 10))
//	    m.Constructor(NewPerson, schema.Req("age"), schema.Req("firstName"), schema.Req("lastName"))
//	    m.Constructor(NewNamedPerson, schema.Req("age"), schema.Req("name"))
//	}
//
// Exported methods that are not declared remain addressable with positional
// parameter names (arg0, arg1, ...), all required.
//
// All names are case folded when the schema is built; lookups fold the query
// the same way, so "Age", "AGE" and "age" address the same member.
//
// Schemas are memoized in a process-wide table keyed by type identity.
// Concurrent first use of a type builds it once; every caller observes the
// same complete *Schema.
package schema
