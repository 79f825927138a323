// Package dynamic addresses the properties and methods of domain objects by
// string name. It is the capability the cache and the host command
// interpreter build on.
//
// Every operation returns an explicit outcome: a value and a *errors.DynError
// whose code names the failure kind (PROPERTY_NOT_FOUND, TYPE_MISMATCH, ...).
// Panics raised by reflection or by the domain code are recovered and
// reported as INTERNAL; none escape to the caller.
//
// Named-argument calls (InvokeNamed, Construct) choose among overloads by
// counting how many of an overload's required parameter names were supplied.
// The highest count wins and the first declared overload wins a tie. The
// winner is called even when some of its required parameters are missing;
// the call then fails rather than passing a zero value.
package dynamic
