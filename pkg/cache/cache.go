package cache

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
	"github.com/arthur-debert/dynreg/pkg/notify"
	"github.com/arthur-debert/dynreg/pkg/registry"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

// MembersProperty is the property name carried by a cache's coarse signal
const MembersProperty = "Members"

// Member is one (key, object) pair of a cache
type Member struct {
	Key    string
	Object dynamic.Object
}

// watch is the cache's subscription to one object, shared by every key that
// holds that object
type watch struct {
	sub  notify.Subscription
	refs int
}

// Cache is a named, mutable collection of dynamic objects
type Cache struct {
	notify.Notifier

	id      string
	members registry.Registry[dynamic.Object]
	watches map[*notify.Notifier]*watch

	// set while the coarse signal is being delivered; a cache reached again
	// through its own members (itself, or a cycle of caches) stays quiet
	notifying bool
}

// New creates an empty cache. An empty id is replaced by a random UUID.
// A cache listens from construction.
func New(id string) *Cache {
	if id == "" {
		id = uuid.NewString()
	}
	c := &Cache{
		id:      id,
		members: registry.New[dynamic.Object](registry.AllowEmptyNames()),
		watches: make(map[*notify.Notifier]*watch),
	}
	c.Listen(true)
	return c
}

// DescribeSchema exposes the cache itself as a dynamic object
func (c *Cache) DescribeSchema(m *schema.Manifest) {
	m.Constructor(New, schema.Opt("id", ""))
	m.Property("ID", (*Cache).ID, nil)
	m.Property("Count", (*Cache).Count, nil)
	m.Property("Keys", (*Cache).Keys, nil)
	m.Method("Get", schema.Req("key"))
	m.Method("Has", schema.Req("key"))
	m.Method("Remove", schema.Req("key"))
	m.Method("GetProperty", schema.Req("key"), schema.Req("property"))
	m.Method("SetProperty", schema.Req("key"), schema.Req("property"), schema.Req("value"))
	m.Hide("Add", "AddOrReplace", "Resolve", "Members", "Invoke", "InvokeNamed")
}

// ID returns the cache's identifier
func (c *Cache) ID() string { return c.id }

// Count returns the number of members
func (c *Cache) Count() int { return c.members.Count() }

// Keys returns the member keys in insertion order
func (c *Cache) Keys() []string { return c.members.List() }

// Has reports whether key is present
func (c *Cache) Has(key string) bool { return c.members.Has(key) }

// Add inserts obj under key. It returns false, leaving the cache unchanged,
// when key is already present or obj is nil.
func (c *Cache) Add(key string, obj dynamic.Object) bool {
	n, err := notifierOf(obj)
	if err != nil {
		c.fault("add", err, key, "")
		return false
	}
	if err := c.members.Register(key, obj); err != nil {
		c.fault("add", err, key, "")
		return false
	}
	c.watch(n)
	c.changed()
	return true
}

// AddOrReplace stores obj under key, replacing any current member. The
// replaced object no longer reaches the cache's signal unless it is still
// held under another key.
func (c *Cache) AddOrReplace(key string, obj dynamic.Object) bool {
	n, err := notifierOf(obj)
	if err != nil {
		c.fault("add_or_replace", err, key, "")
		return false
	}
	previous, replaced, err := c.members.Replace(key, obj)
	if err != nil {
		c.fault("add_or_replace", err, key, "")
		return false
	}
	c.watch(n)
	if replaced {
		c.unwatch(previous)
	}
	c.changed()
	return true
}

// Remove deletes key. It returns false when key is absent.
func (c *Cache) Remove(key string) bool {
	obj, err := c.members.Remove(key)
	if err != nil {
		logger := logging.GetLogger("cache")
		logger.Debug().Str("cache", c.id).Str("key", key).Msg("Remove of absent key")
		return false
	}
	c.unwatch(obj)
	c.changed()
	return true
}

// Get returns the member stored under key
func (c *Cache) Get(key string) (dynamic.Object, bool) {
	return c.members.Lookup(key)
}

// Resolve is Get with a KEY_NOT_FOUND error for absent keys
func (c *Cache) Resolve(key string) (dynamic.Object, error) {
	obj, ok := c.members.Lookup(key)
	if !ok {
		return nil, errors.Newf(errors.ErrKeyNotFound, "cache %s has no member %q", c.id, key).
			WithDetail("cache", c.id).
			WithDetail("key", key)
	}
	return obj, nil
}

// Members returns every (key, object) pair in insertion order. A replaced
// key keeps its original position.
func (c *Cache) Members() []Member {
	entries := c.members.Entries()
	out := make([]Member, len(entries))
	for i, e := range entries {
		out[i] = Member{Key: e.Name, Object: e.Item}
	}
	return out
}

// GetProperty reads a property of the member under key
func (c *Cache) GetProperty(key, property string) (interface{}, bool) {
	obj, err := c.Resolve(key)
	if err == nil {
		var value interface{}
		if value, err = dynamic.Get(obj, property); err == nil {
			return value, true
		}
	}
	c.fault("get_property", err, key, property)
	return nil, false
}

// SetProperty assigns a property of the member under key. On failure the
// property keeps its prior value.
func (c *Cache) SetProperty(key, property string, value interface{}) bool {
	obj, err := c.Resolve(key)
	if err == nil {
		if err = dynamic.Set(obj, property, value); err == nil {
			return true
		}
	}
	c.fault("set_property", err, key, property)
	return false
}

// Invoke calls a method of the member under key with positional arguments
func (c *Cache) Invoke(key, method string, args ...interface{}) (interface{}, bool) {
	obj, err := c.Resolve(key)
	if err == nil {
		var out interface{}
		if out, err = dynamic.Invoke(obj, method, args...); err == nil {
			return out, true
		}
	}
	c.fault("invoke", err, key, method)
	return nil, false
}

// InvokeNamed calls a method of the member under key with named arguments
func (c *Cache) InvokeNamed(key, method string, args map[string]interface{}) (interface{}, bool) {
	obj, err := c.Resolve(key)
	if err == nil {
		var out interface{}
		if out, err = dynamic.InvokeNamed(obj, method, args); err == nil {
			return out, true
		}
	}
	c.fault("invoke_named", err, key, method)
	return nil, false
}

// notifierOf returns the notifier the cache subscribes to, rejecting nil
// objects, typed nil pointers included
func notifierOf(obj dynamic.Object) (*notify.Notifier, error) {
	if obj == nil {
		return nil, errors.New(errors.ErrInvalidInput, "object is nil")
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return nil, errors.Newf(errors.ErrInvalidInput, "object is a nil %s", v.Type())
		}
	}
	n := obj.Notifications()
	if n == nil {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s has no notifier", v.Type())
	}
	return n, nil
}

// Watches are keyed by notifier so an object shared by several keys is
// subscribed once, whatever its dynamic type.
func (c *Cache) watch(n *notify.Notifier) {
	if w, ok := c.watches[n]; ok {
		w.refs++
		return
	}
	n.Listen(true)
	sub := n.Subscribe(func(notify.Event) { c.changed() })
	c.watches[n] = &watch{sub: sub, refs: 1}
}

func (c *Cache) unwatch(obj dynamic.Object) {
	n := obj.Notifications()
	w, ok := c.watches[n]
	if !ok {
		return
	}
	w.refs--
	if w.refs > 0 {
		return
	}
	n.Unsubscribe(w.sub)
	delete(c.watches, n)
}

func (c *Cache) changed() {
	if c.notifying {
		return
	}
	c.notifying = true
	defer func() { c.notifying = false }()
	c.Notify(c, MembersProperty)
}

func (c *Cache) fault(op string, err error, key, name string) {
	fields := map[string]interface{}{"cache": c.id, "key": key}
	if name != "" {
		fields["name"] = name
	}
	logging.LogFault("cache", op, err, fields)
}
