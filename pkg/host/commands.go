package host

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/arthur-debert/dynreg/pkg/codec"
	"github.com/arthur-debert/dynreg/pkg/dynamic"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/registry"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

type command struct {
	name    string
	usage   string
	summary string
	min     int
	max     int // -1 for no limit
	run     func(h *Host, args []Token) error
}

func commandTable() registry.Registry[*command] {
	reg := registry.New[*command]()
	for _, c := range []*command{
		{"help", "help", "list commands", 0, 0, (*Host).help},
		{"types", "types", "list constructible types", 0, 0, (*Host).types},
		{"describe", "describe TYPE", "show the properties, methods and constructors of a type", 1, 1, (*Host).describe},
		{"caches", "caches", "list caches", 0, 0, (*Host).caches},
		{"mkcache", "mkcache ID", "create a cache", 1, 1, (*Host).mkcache},
		{"use", "use ID", "address another cache", 1, 1, (*Host).use},
		{"new", "new KEY TYPE [name=value...]", "construct an object and add it under a new key", 2, -1, (*Host).add},
		{"put", "put KEY TYPE [name=value...]", "construct an object and store it, replacing any current one", 2, -1, (*Host).put},
		{"rm", "rm KEY", "remove an object", 1, 1, (*Host).rm},
		{"ls", "ls", "list the objects of the current cache", 0, 0, (*Host).ls},
		{"get", "get KEY PROPERTY", "print a property", 2, 2, (*Host).get},
		{"set", "set KEY PROPERTY VALUE", "assign a property", 3, 3, (*Host).set},
		{"call", "call KEY METHOD [arg...|name=value...]", "invoke a method; _ skips a positional argument", 2, -1, (*Host).call},
		{"show", "show KEY [FORMAT]", "print an object as yaml, json, toml or xml", 1, 2, (*Host).show},
		{"save", "save KEY PATH", "write an object to a file, format from the extension", 2, 2, (*Host).save},
		{"load", "load KEY TYPE PATH", "read an object from a file and store it", 3, 3, (*Host).load},
		{"watch", "watch [ID]", "print a line whenever a cache changes", 0, 1, (*Host).watchCmd},
		{"unwatch", "unwatch [ID]", "stop watching a cache", 0, 1, (*Host).unwatchCmd},
	} {
		registry.MustRegister(reg, schema.Fold(c.name), c)
	}
	return reg
}

func (h *Host) help(_ []Token) error {
	width := 0
	entries := h.commands.Entries()
	for _, e := range entries {
		if len(e.Item.usage) > width {
			width = len(e.Item.usage)
		}
	}
	for _, e := range entries {
		h.printf("  %-*s  %s\n", width, e.Item.usage, h.palette.Muted(e.Item.summary))
	}
	return nil
}

func (h *Host) types(_ []Token) error {
	for _, name := range dynamic.TypeNames() {
		h.println(h.palette.Type(name))
	}
	return nil
}

func (h *Host) describe(args []Token) error {
	name := args[0].Text
	t, ok := dynamic.LookupType(name)
	if !ok {
		return errors.Newf(errors.ErrKeyNotFound, "unknown type %q", name)
	}
	s, err := schema.Of(t)
	if err != nil {
		return err
	}

	h.println(h.palette.Title(s.Name()))
	h.println("  properties:")
	for _, p := range s.Properties() {
		suffix := ""
		if p.ReadOnly {
			suffix = h.palette.Muted(" (read-only)")
		}
		h.printf("    %s %s%s\n", h.palette.Key(p.Name), h.palette.Type(p.Type.String()), suffix)
	}
	h.println("  methods:")
	for _, m := range s.Methods() {
		group, _ := s.Overloads(m)
		for _, c := range group {
			h.printf("    %s\n", h.signature(c))
		}
	}
	h.println("  constructors:")
	for _, c := range s.Constructors() {
		h.printf("    %s\n", h.signature(c))
	}
	return nil
}

func (h *Host) signature(c *schema.Callable) string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.Name + " " + h.palette.Type(p.Type.String())
		if p.Optional {
			params[i] += fmt.Sprintf(" = %v", p.Default.Interface())
		}
	}
	return fmt.Sprintf("%s(%s)", h.palette.Key(c.Name), strings.Join(params, ", "))
}

func (h *Host) caches(_ []Token) error {
	for _, id := range h.dir.IDs() {
		c, _ := h.dir.Lookup(id)
		marker := " "
		if id == h.current {
			marker = "*"
		}
		h.printf("%s %s %s\n", marker, h.palette.Key(id), h.palette.Muted(fmt.Sprintf("(%d)", c.Count())))
	}
	return nil
}

func (h *Host) mkcache(args []Token) error {
	c, err := h.dir.Ensure(args[0].Text)
	if err != nil {
		return err
	}
	h.println(h.palette.Success("cache " + c.ID()))
	return nil
}

func (h *Host) use(args []Token) error {
	c, err := h.dir.Resolve(args[0].Text)
	if err != nil {
		return err
	}
	h.current = c.ID()
	return nil
}

func (h *Host) construct(args []Token) (dynamic.Object, error) {
	named, err := namedArgs(args[2:])
	if err != nil {
		return nil, err
	}
	return dynamic.New(args[1].Text, named)
}

func (h *Host) add(args []Token) error {
	c, err := h.cache()
	if err != nil {
		return err
	}
	obj, err := h.construct(args)
	if err != nil {
		return err
	}
	key := args[0].Text
	if !c.Add(key, obj) {
		return errors.Newf(errors.ErrDuplicateKey, "cache %s already holds %q", c.ID(), key)
	}
	h.printf("%s = %s\n", h.palette.Key(key), dynamic.String(obj))
	return nil
}

func (h *Host) put(args []Token) error {
	c, err := h.cache()
	if err != nil {
		return err
	}
	obj, err := h.construct(args)
	if err != nil {
		return err
	}
	key := args[0].Text
	if !c.AddOrReplace(key, obj) {
		return errors.Newf(errors.ErrInvalidInput, "cannot store %q", key)
	}
	h.printf("%s = %s\n", h.palette.Key(key), dynamic.String(obj))
	return nil
}

func (h *Host) rm(args []Token) error {
	c, err := h.cache()
	if err != nil {
		return err
	}
	if !c.Remove(args[0].Text) {
		return errors.Newf(errors.ErrKeyNotFound, "cache %s has no %q", c.ID(), args[0].Text)
	}
	return nil
}

func (h *Host) ls(_ []Token) error {
	c, err := h.cache()
	if err != nil {
		return err
	}
	members := c.Members()
	if len(members) == 0 {
		h.println(h.palette.Muted("(empty)"))
		return nil
	}
	for _, m := range members {
		h.printf("%s = %s\n", h.palette.Key(m.Key), dynamic.String(m.Object))
	}
	return nil
}

// member resolves key in the current cache and returns the object's schema
func (h *Host) member(key string) (dynamic.Object, *schema.Schema, error) {
	c, err := h.cache()
	if err != nil {
		return nil, nil, err
	}
	obj, err := c.Resolve(key)
	if err != nil {
		return nil, nil, err
	}
	s, err := schema.For(obj)
	if err != nil {
		return nil, nil, err
	}
	return obj, s, nil
}

func (h *Host) get(args []Token) error {
	key, prop := args[0].Text, args[1].Text
	if _, _, err := h.member(key); err != nil {
		return err
	}
	c, _ := h.cache()
	v, ok := c.GetProperty(key, prop)
	if !ok {
		return errors.Newf(errors.ErrInvocation, "get %s.%s failed", key, prop)
	}
	h.println(render(v))
	return nil
}

func (h *Host) set(args []Token) error {
	key, prop := args[0].Text, args[1].Text
	_, s, err := h.member(key)
	if err != nil {
		return err
	}
	value := literal(args[2])
	if p, ok := s.Property(prop); ok {
		value = typedLiteral(args[2], p.Type)
	}
	c, _ := h.cache()
	if !c.SetProperty(key, prop, value) {
		return errors.Newf(errors.ErrInvocation, "set %s.%s failed", key, prop)
	}
	return nil
}

func (h *Host) call(args []Token) error {
	key, method := args[0].Text, args[1].Text
	_, s, err := h.member(key)
	if err != nil {
		return err
	}
	c, _ := h.cache()

	rest := args[2:]
	var (
		out interface{}
		ok  bool
	)
	if len(rest) > 0 && hasNamed(rest) {
		named, err := namedArgs(rest)
		if err != nil {
			return err
		}
		out, ok = c.InvokeNamed(key, method, named)
	} else {
		out, ok = c.Invoke(key, method, positional(s, method, rest)...)
	}
	if !ok {
		return errors.Newf(errors.ErrInvocation, "call %s.%s failed", key, method)
	}
	if out != nil {
		h.println(render(out))
	}
	return nil
}

func (h *Host) show(args []Token) error {
	obj, _, err := h.member(args[0].Text)
	if err != nil {
		return err
	}
	format := h.format
	if len(args) > 1 {
		if format, err = codec.ParseFormat(args[1].Text); err != nil {
			return err
		}
	}
	text, err := codec.Serialize(obj, format)
	if err != nil {
		return err
	}
	h.println(strings.TrimRight(text, "\n"))
	return nil
}

func (h *Host) formatFor(path string) codec.Format {
	if f, err := codec.ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return h.format
}

func (h *Host) save(args []Token) error {
	obj, _, err := h.member(args[0].Text)
	if err != nil {
		return err
	}
	path := args[1].Text
	text, err := codec.Serialize(obj, h.formatFor(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrEncode, "cannot write %s", path)
	}
	return nil
}

func (h *Host) load(args []Token) error {
	c, err := h.cache()
	if err != nil {
		return err
	}
	key, typeName, path := args[0].Text, args[1].Text, args[2].Text
	t, ok := dynamic.LookupType(typeName)
	if !ok {
		return errors.Newf(errors.ErrKeyNotFound, "unknown type %q", typeName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrDecode, "cannot read %s", path)
	}
	out, err := codec.Deserialize(string(data), h.formatFor(path), t)
	if err != nil {
		return err
	}
	obj, ok := out.(dynamic.Object)
	if !ok {
		return errors.Newf(errors.ErrTypeMismatch, "%s is not an object", typeName)
	}
	c.AddOrReplace(key, obj)
	h.printf("%s = %s\n", h.palette.Key(key), dynamic.String(obj))
	return nil
}

func (h *Host) watchCmd(args []Token) error {
	id := h.current
	if len(args) > 0 {
		id = args[0].Text
	}
	c, err := h.dir.Resolve(id)
	if err != nil {
		return err
	}
	if h.watch(c) {
		h.println(h.palette.Muted("watching " + id))
	}
	return nil
}

func (h *Host) unwatchCmd(args []Token) error {
	id := h.current
	if len(args) > 0 {
		id = args[0].Text
	}
	if !h.unwatch(id) {
		return errors.Newf(errors.ErrKeyNotFound, "not watching %s", id)
	}
	return nil
}

func literal(t Token) interface{} {
	if t.Quoted {
		return t.Text
	}
	return codec.ParseScalar(t.Text)
}

func typedLiteral(t Token, target reflect.Type) interface{} {
	if t.Quoted {
		return t.Text
	}
	return codec.ParseAs(t.Text, target)
}

func hasNamed(tokens []Token) bool {
	for _, t := range tokens {
		if _, _, ok := t.Named(); ok {
			return true
		}
	}
	return false
}

func namedArgs(tokens []Token) (map[string]interface{}, error) {
	named := make(map[string]interface{}, len(tokens))
	for _, t := range tokens {
		name, value, ok := t.Named()
		if !ok || name == "" {
			return nil, errors.Newf(errors.ErrCommandParse, "expected name=value, got %q", t.Text)
		}
		named[name] = literal(Token{Text: value, Quoted: t.Quoted, Assign: -1})
	}
	return named, nil
}

// positional types arguments by the first overload of method, the one
// Invoke dispatches to. "_" passes dynamic.Missing.
func positional(s *schema.Schema, method string, tokens []Token) []interface{} {
	var params []schema.Param
	if group, ok := s.Overloads(method); ok {
		params = group[0].Params
	}
	args := make([]interface{}, len(tokens))
	for i, t := range tokens {
		switch {
		case t.Text == "_" && !t.Quoted:
			args[i] = dynamic.Missing
		case i < len(params):
			args[i] = typedLiteral(t, params[i].Type)
		default:
			args[i] = literal(t)
		}
	}
	return args
}

func render(v interface{}) string {
	if v == nil {
		return "nil"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		return dynamic.String(v)
	}
	return fmt.Sprint(v)
}
