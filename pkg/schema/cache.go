package schema

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
)

var (
	schemas sync.Map // reflect.Type -> *Schema
	builds  singleflight.Group
)

// Of returns the schema of t, which must be a struct or pointer-to-struct
// type. The schema is built on first use and shared afterwards.
func Of(t reflect.Type) (*Schema, error) {
	ptr, err := normalize(t)
	if err != nil {
		return nil, err
	}
	if s, ok := schemas.Load(ptr); ok {
		return s.(*Schema), nil
	}

	v, err, _ := builds.Do(typeKey(ptr), func() (interface{}, error) {
		if s, ok := schemas.Load(ptr); ok {
			return s, nil
		}
		logger := logging.GetLogger("schema")
		done := logging.LogOperationStart(logger, "build "+ptr.String())
		defer done()

		s, err := build(ptr)
		if err != nil {
			return nil, err
		}
		actual, _ := schemas.LoadOrStore(ptr, s)
		logger.Debug().
			Str("type", ptr.String()).
			Int("properties", len(s.propOrder)).
			Int("methods", len(s.methodOrder)).
			Int("constructors", len(s.constructors)).
			Msg("Schema built")
		return actual, nil
	})
	if err != nil {
		return nil, err
	}

	s := v.(*Schema)
	if s.Type != ptr {
		// Two distinct types shared a flight key; build this one directly.
		return buildDirect(ptr)
	}
	return s, nil
}

func buildDirect(ptr reflect.Type) (*Schema, error) {
	s, err := build(ptr)
	if err != nil {
		return nil, err
	}
	actual, _ := schemas.LoadOrStore(ptr, s)
	return actual.(*Schema), nil
}

// For returns the schema of v's dynamic type
func For(v interface{}) (*Schema, error) {
	if v == nil {
		return nil, errors.New(errors.ErrInvalidInput, "cannot describe nil")
	}
	return Of(reflect.TypeOf(v))
}

// MustOf is Of for init-time use; it panics on an invalid type
func MustOf(t reflect.Type) *Schema {
	s, err := Of(t)
	if err != nil {
		panic(err)
	}
	return s
}

func normalize(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, errors.New(errors.ErrInvalidInput, "cannot describe nil type")
	}
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t), nil
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		return t, nil
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "%s is not a struct or pointer to struct", t)
}

func typeKey(ptr reflect.Type) string {
	return ptr.Elem().PkgPath() + "|" + ptr.String()
}
