// Package directory is the process-wide table of caches addressed by id.
// Exactly one cache, "default", exists from the start.
package directory

import (
	"github.com/arthur-debert/dynreg/pkg/cache"
	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
	"github.com/arthur-debert/dynreg/pkg/registry"
)

// DefaultID is the id of the cache every directory starts with
const DefaultID = "default"

// Directory maps ids to caches
type Directory struct {
	caches registry.Registry[*cache.Cache]
}

// Global is the process-wide directory
var Global = New()

// New creates a directory holding only the default cache
func New() *Directory {
	d := &Directory{caches: registry.New[*cache.Cache]()}
	registry.MustRegister(d.caches, DefaultID, cache.New(DefaultID))
	return d
}

// Default returns the default cache
func (d *Directory) Default() *cache.Cache {
	c, _ := d.caches.Lookup(DefaultID)
	return c
}

// Resolve returns the cache registered under id
func (d *Directory) Resolve(id string) (*cache.Cache, error) {
	c, ok := d.caches.Lookup(id)
	if !ok {
		return nil, errors.Newf(errors.ErrKeyNotFound, "no cache %q", id).WithDetail("cache", id)
	}
	return c, nil
}

// Lookup is Resolve without the error
func (d *Directory) Lookup(id string) (*cache.Cache, bool) {
	return d.caches.Lookup(id)
}

// Register adds c under its own id
func (d *Directory) Register(c *cache.Cache) error {
	if c == nil {
		return errors.New(errors.ErrInvalidInput, "cache is nil")
	}
	return d.caches.Register(c.ID(), c)
}

// Ensure returns the cache registered under id, creating it when absent
func (d *Directory) Ensure(id string) (*cache.Cache, error) {
	if c, ok := d.caches.Lookup(id); ok {
		return c, nil
	}
	c := cache.New(id)
	if err := d.caches.Register(id, c); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("directory")
	logger.Info().Str("cache", id).Msg("Cache created")
	return c, nil
}

// IDs returns the cache ids in creation order
func (d *Directory) IDs() []string {
	return d.caches.List()
}

// Member returns the object under name in the cache with the given id
func (d *Directory) Member(name, id string) (dynamic.Object, bool) {
	c, err := d.Resolve(id)
	if err != nil {
		logging.LogFault("directory", "member", err, map[string]interface{}{"name": name})
		return nil, false
	}
	obj, ok := c.Get(name)
	if !ok {
		logger := logging.GetLogger("directory")
		logger.Debug().Str("cache", id).Str("name", name).Msg("Member not found")
	}
	return obj, ok
}

// Resolve looks id up in Global
func Resolve(id string) (*cache.Cache, error) {
	return Global.Resolve(id)
}

// Default returns the default cache of Global
func Default() *cache.Cache {
	return Global.Default()
}

// Member looks a member up in Global
func Member(name, id string) (dynamic.Object, bool) {
	return Global.Member(name, id)
}
