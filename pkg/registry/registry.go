package registry

import (
	"fmt"
	"sync"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

// Registry stores items by name and enumerates them in insertion order
type Registry[T any] interface {
	// Register adds an item only if name is not taken
	Register(name string, item T) error

	// Replace inserts or overwrites an item, returning the previous one.
	// An overwritten name keeps its original position.
	Replace(name string, item T) (previous T, replaced bool, err error)

	// Get retrieves an item from the registry
	Get(name string) (T, error)

	// Lookup is Get without an error value
	Lookup(name string) (T, bool)

	// Remove deletes an item and returns it
	Remove(name string) (T, error)

	// List returns all registered names in insertion order
	List() []string

	// Entries returns a snapshot of all (name, item) pairs in insertion order
	Entries() []Entry[T]

	// Has checks if an item is registered
	Has(name string) bool

	// Clear removes all items from the registry
	Clear()

	// Count returns the number of registered items
	Count() int
}

// Entry is one (name, item) pair of a registry snapshot
type Entry[T any] struct {
	Name string
	Item T
}

type registry[T any] struct {
	mu         sync.RWMutex
	items      map[string]T
	order      []string
	allowEmpty bool
}

// Option configures a Registry
type Option func(*options)

type options struct {
	allowEmpty bool
}

// AllowEmptyNames lets "" be registered like any other name
func AllowEmptyNames() Option {
	return func(o *options) { o.allowEmpty = true }
}

// New creates a new Registry instance
func New[T any](opts ...Option) Registry[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &registry[T]{
		items:      make(map[string]T),
		allowEmpty: o.allowEmpty,
	}
}

func (r *registry[T]) validName(name string) error {
	if name == "" && !r.allowEmpty {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}
	return nil
}

func (r *registry[T]) Register(name string, item T) error {
	if err := r.validName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.Newf(errors.ErrDuplicateKey, "item '%s' is already registered", name).
			WithDetail("key", name)
	}

	r.items[name] = item
	r.order = append(r.order, name)
	return nil
}

func (r *registry[T]) Replace(name string, item T) (T, bool, error) {
	var zero T
	if err := r.validName(name); err != nil {
		return zero, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, exists := r.items[name]
	r.items[name] = item
	if !exists {
		r.order = append(r.order, name)
	}
	return previous, exists, nil
}

func (r *registry[T]) Get(name string) (T, error) {
	item, ok := r.Lookup(name)
	if !ok {
		return item, errors.Newf(errors.ErrKeyNotFound, "item '%s' not found in registry", name).
			WithDetail("key", name)
	}
	return item, nil
}

func (r *registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	return item, exists
}

func (r *registry[T]) Remove(name string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[name]
	if !exists {
		return item, errors.Newf(errors.ErrKeyNotFound, "item '%s' not found in registry", name).
			WithDetail("key", name)
	}

	delete(r.items, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return item, nil
}

func (r *registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *registry[T]) Entries() []Entry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry[T], 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, Entry[T]{Name: name, Item: r.items[name]})
	}
	return entries
}

func (r *registry[T]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

func (r *registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]T)
	r.order = nil
}

func (r *registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// MustRegister registers an item and panics if registration fails.
// Intended for init() time registration where a failure is a programming error.
func MustRegister[T any](reg Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}
