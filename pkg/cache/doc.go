// Package cache implements a named collection of dynamic objects addressed
// by string key.
//
// A Cache subscribes to every object it holds and turns each one's change
// notifications into a single coarse signal on itself, so observers of the
// cache learn that something inside it changed without tracking members
// individually. Replacing or removing an object severs that subscription
// explicitly.
//
// The proxy operations (GetProperty, SetProperty, Invoke, InvokeNamed) never
// return errors. Any fault, from an absent key to a panicking method, is
// logged and reported through a false ok result.
//
// A Cache is not safe for concurrent mutation. Hosts sharing one cache
// between goroutines serialize their calls.
package cache
