package codec

import (
	"fmt"
	"reflect"

	"github.com/beevik/etree"

	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

const itemTag = "Item"

func encodeXML(s *schema.Schema, fields []dynamic.Field) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(s.Name())

	for _, f := range fields {
		el := root.CreateElement(f.Name)
		if f.Value == nil {
			continue
		}
		v := reflect.ValueOf(f.Value)
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			if b, ok := f.Value.([]byte); ok {
				el.SetText(string(b))
				continue
			}
			for i := 0; i < v.Len(); i++ {
				el.CreateElement(itemTag).SetText(fmt.Sprint(v.Index(i).Interface()))
			}
		case reflect.Map, reflect.Struct, reflect.Ptr, reflect.Func, reflect.Chan:
			return "", errors.Newf(errors.ErrEncode, "%s.%s: %s values have no xml form", s.Name(), f.Name, v.Kind()).
				WithDetail("property", f.Name)
		default:
			el.SetText(fmt.Sprint(f.Value))
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrEncode, "cannot write xml")
	}
	return out, nil
}

func decodeXML(s *schema.Schema, text string) (map[string]interface{}, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, errors.Wrap(err, errors.ErrDecode, "cannot parse xml document")
	}
	root := doc.Root()
	if root == nil {
		return map[string]interface{}{}, nil
	}
	if schema.Fold(root.Tag) != schema.Fold(s.Name()) {
		return nil, errors.Newf(errors.ErrDecode, "document holds %s, not %s", root.Tag, s.Name())
	}

	values := make(map[string]interface{})
	for _, el := range root.ChildElements() {
		p, ok := s.Property(el.Tag)
		if !ok {
			values[el.Tag] = el.Text()
			continue
		}
		values[el.Tag] = xmlValue(el, p.Type)
	}
	return values, nil
}

// xmlValue types element text by the property it is headed for
func xmlValue(el *etree.Element, t reflect.Type) interface{} {
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		items := el.ChildElements()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = ParseAs(item.Text(), t.Elem())
		}
		return out
	}
	return ParseAs(el.Text(), t)
}

// ParseAs types text for a destination of type t: string destinations take
// the text verbatim, byte slices take its bytes, and anything else goes
// through ParseScalar.
func ParseAs(text string, t reflect.Type) interface{} {
	switch {
	case t.Kind() == reflect.String:
		return text
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return []byte(text)
	}
	return ParseScalar(text)
}
