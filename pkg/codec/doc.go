// Package codec persists the property state of dynamic objects as text.
//
// Four formats are supported: yaml, json, toml and xml. Encoding writes every
// property in declaration order, read-only and computed ones included.
// Decoding assigns writable properties through dynamic.Set, so values go
// through the same conversion rules as any other property write, and skips
// read-only ones. A document naming a property the type does not have is
// rejected.
package codec
