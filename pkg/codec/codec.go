package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

// Format names a text encoding
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
	XML  Format = "xml"
)

// Formats lists the supported formats
var Formats = []Format{YAML, JSON, TOML, XML}

// ParseFormat accepts a format name or common file extension
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	case "xml":
		return XML, nil
	}
	return "", errors.Newf(errors.ErrUnsupportedFormat, "unsupported format %q", name).
		WithDetail("format", name)
}

// Serialize renders the properties of obj in the given format
func Serialize(obj interface{}, format Format) (string, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return "", err
	}
	s, err := schema.For(obj)
	if err != nil {
		return "", err
	}
	fields, err := dynamic.Snapshot(obj)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrEncode, "cannot read object")
	}

	var out []byte
	switch format {
	case XML:
		return encodeXML(s, fields)
	case JSON:
		out, err = json.MarshalIndent(document(s, fields), "", "  ")
		out = append(out, '\n')
	case YAML:
		out, err = yaml.Marshal(document(s, fields))
	case TOML:
		out, err = toml.Marshal(document(s, fields))
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrEncode, "cannot encode %s as %s", s.Name(), format)
	}
	return string(out), nil
}

// Deserialize creates a zero instance of t, a struct or pointer-to-struct
// type, and decodes text into it. Constructors are not run.
func Deserialize(text string, format Format, t reflect.Type) (interface{}, error) {
	s, err := schema.Of(t)
	if err != nil {
		return nil, err
	}
	obj := reflect.New(s.Type.Elem()).Interface()
	if err := Decode(obj, text, format); err != nil {
		return nil, err
	}
	return obj, nil
}

// Decode assigns the properties named in text to the existing object obj
func Decode(obj interface{}, text string, format Format) error {
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}
	s, err := schema.For(obj)
	if err != nil {
		return err
	}

	values := map[string]interface{}{}
	switch format {
	case XML:
		values, err = decodeXML(s, text)
	case JSON:
		if strings.TrimSpace(text) != "" {
			err = json.Unmarshal([]byte(text), &values)
		}
	case YAML:
		err = yaml.Unmarshal([]byte(text), &values)
	case TOML:
		err = toml.Unmarshal([]byte(text), &values)
	}
	if err != nil {
		if errors.GetErrorCode(err) != errors.ErrUnknown {
			return err
		}
		return errors.Wrapf(err, errors.ErrDecode, "cannot parse %s document", format)
	}
	return apply(obj, s, values)
}

// document copies fields into an anonymous struct whose field order and tags
// follow the schema, so every encoder keeps declaration order
func document(s *schema.Schema, fields []dynamic.Field) interface{} {
	props := s.Properties()
	sfs := make([]reflect.StructField, len(props))
	for i, p := range props {
		sfs[i] = reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: p.Type,
			Tag:  reflect.StructTag(fmt.Sprintf(`json:%q yaml:%q toml:%q`, p.Name, p.Name, p.Name)),
		}
	}
	doc := reflect.New(reflect.StructOf(sfs)).Elem()
	for i, f := range fields {
		if f.Value != nil {
			doc.Field(i).Set(reflect.ValueOf(f.Value))
		}
	}
	return doc.Interface()
}

func apply(obj interface{}, s *schema.Schema, values map[string]interface{}) error {
	folded := make(map[string]interface{}, len(values))
	for name, v := range values {
		if _, ok := s.Property(name); !ok {
			return errors.Newf(errors.ErrDecode, "%s has no property %q", s.Name(), name).
				WithDetail("property", name)
		}
		key := schema.Fold(name)
		if _, dup := folded[key]; dup {
			return errors.Newf(errors.ErrDecode, "property %q appears twice", name)
		}
		folded[key] = v
	}

	for _, p := range s.Properties() {
		v, ok := folded[p.Key]
		if !ok || p.ReadOnly {
			continue
		}
		if err := dynamic.Set(obj, p.Name, v); err != nil {
			return errors.Wrapf(err, errors.ErrDecode, "cannot decode %s.%s", s.Name(), p.Name).
				WithDetail("property", p.Name)
		}
	}
	return nil
}

// ParseScalar types a command-line literal the way YAML would: 42 is an int,
// 2.5 a float, true a bool, ~ or null is nil and [1, 2] a list. Anything
// that does not parse stays a string.
func ParseScalar(text string) interface{} {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var v interface{}
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}
