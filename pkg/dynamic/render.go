package dynamic

import (
	"fmt"
	"strings"
)

// Field is one property value captured by Snapshot
type Field struct {
	Name     string
	Value    interface{}
	ReadOnly bool
}

// Snapshot reads every property of obj in declaration order
func Snapshot(obj interface{}) (fields []Field, err error) {
	defer guard(&err, "snapshot")

	v, s, err := resolve(obj)
	if err != nil {
		return nil, err
	}
	props := s.Properties()
	fields = make([]Field, 0, len(props))
	for _, p := range props {
		value, err := read(v, p)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: p.Name, Value: value, ReadOnly: p.ReadOnly})
	}
	return fields, nil
}

// String renders obj as Type[Prop: value Prop: value]. Objects that cannot be
// read render as Type[?].
func String(obj interface{}) string {
	_, s, err := resolve(obj)
	if err != nil {
		return fmt.Sprintf("%T", obj)
	}
	fields, err := Snapshot(obj)
	if err != nil {
		return s.Name() + "[?]"
	}

	var b strings.Builder
	b.WriteString(s.Name())
	b.WriteByte('[')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, f.Value)
	}
	b.WriteByte(']')
	return b.String()
}
