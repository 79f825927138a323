package dynamic

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/notify"
	"github.com/arthur-debert/dynreg/pkg/schema"
)

type person struct {
	notify.Notifier
	Age       int
	FirstName string
	LastName  string
	ID        string `dyn:",readonly"`
}

func newPerson(age int, first, last string) *person {
	return &person{Age: age, FirstName: first, LastName: last}
}

func newNamedPerson(age int, name string) *person {
	return &person{Age: age, FirstName: name, LastName: name}
}

func (p *person) AgePlus(add int) int { return p.Age + add }

func (p *person) FullName() string { return p.FirstName + " " + p.LastName }

func (p *person) Birthday() {
	p.Age++
	Notify(p, "Age")
}

func (p *person) Fail() error { return errors.New(errors.ErrInternal, "boom") }

func (p *person) Explode() { panic("kaboom") }

func (p *person) DescribeSchema(m *schema.Manifest) {
	m.Constructor(newPerson, schema.Req("age"), schema.Req("firstName"), schema.Req("lastName"))
	m.Constructor(newNamedPerson, schema.Req("age"), schema.Req("name"))
	m.Method("AgePlus", schema.Opt("add", 10))
}

type events struct {
	props []string
}

func (e *events) handler(ev notify.Event) { e.props = append(e.props, ev.Property) }

func listening(p *person) *events {
	rec := &events{}
	p.Listen(true)
	p.Subscribe(rec.handler)
	return rec
}

func TestGetIsCaseInsensitive(t *testing.T) {
	p := newPerson(100, "Smith", "Jones")

	for _, name := range []string{"firstName", "FIRSTNAME", "firstname", "FirstName"} {
		v, err := Get(p, name)
		require.NoError(t, err, name)
		assert.Equal(t, "Smith", v, name)
	}
}

func TestGetUnknownProperty(t *testing.T) {
	_, err := Get(newPerson(1, "a", "b"), "Height")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPropertyNotFound))
	assert.Equal(t, "Height", errors.GetErrorDetails(err)["property"])
}

func TestGetRejectsNonPointers(t *testing.T) {
	_, err := Get(struct{ Age int }{}, "Age")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = Get(nil, "Age")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	var p *person
	_, err = Get(p, "Age")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSetCoercesAndNotifies(t *testing.T) {
	p := newPerson(1, "a", "b")
	rec := listening(p)

	require.NoError(t, Set(p, "age", int64(42)))
	assert.Equal(t, 42, p.Age)
	assert.Equal(t, []string{"Age"}, rec.props)

	require.NoError(t, Set(p, "AGE", 42))
	assert.Equal(t, []string{"Age"}, rec.props, "unchanged value must not notify")
}

func TestSetTypeMismatchKeepsValue(t *testing.T) {
	p := newPerson(100, "Smith", "Smith")
	rec := listening(p)

	err := Set(p, "Age", "not-a-number")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTypeMismatch))
	assert.Equal(t, 100, p.Age)
	assert.Empty(t, rec.props)
}

func TestSetReadOnly(t *testing.T) {
	p := &person{ID: "fixed"}
	err := Set(p, "id", "other")
	assert.True(t, errors.IsErrorCode(err, errors.ErrReadOnly))
	assert.Equal(t, "fixed", p.ID)
}

func TestGetterSetter(t *testing.T) {
	p := newPerson(5, "a", "b")

	get, err := Getter(p, "age")
	require.NoError(t, err)
	set, err := Setter(p, "Age")
	require.NoError(t, err)

	require.NoError(t, set(6))
	v, err := get()
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	_, err = Getter(p, "nope")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPropertyNotFound))
	_, err = Setter(p, "nope")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPropertyNotFound))
}

func TestMethodNotifies(t *testing.T) {
	p := newPerson(5, "a", "b")
	rec := listening(p)

	_, err := Invoke(p, "birthday")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Age)
	assert.Equal(t, []string{"Age"}, rec.props)
}

func TestInvokeDefaults(t *testing.T) {
	p := newPerson(100, "Smith", "Smith")

	out, err := Invoke(p, "AgePlus")
	require.NoError(t, err)
	assert.Equal(t, 110, out)

	out, err = Invoke(p, "ageplus", Missing)
	require.NoError(t, err)
	assert.Equal(t, 110, out)

	out, err = Invoke(p, "AgePlus", 200)
	require.NoError(t, err)
	assert.Equal(t, 300, out)

	out, err = InvokeNamed(p, "AgePlus", map[string]interface{}{"add": 200})
	require.NoError(t, err)
	assert.Equal(t, 300, out)

	out, err = InvokeNamed(p, "AgePlus", nil)
	require.NoError(t, err)
	assert.Equal(t, 110, out)
}

func TestInvokeFailures(t *testing.T) {
	p := newPerson(1, "a", "b")

	_, err := Invoke(p, "Missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrMethodNotFound))

	_, err = Invoke(p, "AgePlus", 1, 2)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvocation))

	_, err = Invoke(p, "AgePlus", "x")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvocation))
	assert.ErrorIs(t, err, errors.New(errors.ErrTypeMismatch, ""))

	_, err = Invoke(p, "Fail")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvocation))
	assert.ErrorIs(t, err, errors.New(errors.ErrInternal, ""))

	_, err = Invoke(p, "Explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	_, err = InvokeNamed(p, "AgePlus", map[string]interface{}{"add": 1, "ADD": 2})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestInvokeNamedIgnoresUnknownArguments(t *testing.T) {
	out, err := InvokeNamed(newPerson(1, "a", "b"), "AgePlus", map[string]interface{}{"add": 2, "colour": "red"})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestConstructNamed(t *testing.T) {
	p, err := ConstructNamed[*person](map[string]interface{}{"age": 100, "name": "Smith"})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Age)
	assert.Equal(t, "Smith", p.FirstName)
	assert.Equal(t, "Smith", p.LastName)

	p, err = ConstructNamed[*person](map[string]interface{}{"Age": 30, "FirstName": "Ada", "LASTNAME": "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName())
}

func TestConstructTieGoesToFirstDeclared(t *testing.T) {
	_, err := ConstructNamed[*person](map[string]interface{}{"age": 1})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConstructorUnsatisfiable))
	assert.Equal(t, "firstName", errors.GetErrorDetails(err)["argument"])
}

func TestConstructRejectsBadTypes(t *testing.T) {
	_, err := Construct(reflect.TypeOf(person{}), map[string]interface{}{"age": "old", "name": "x"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConstructorUnsatisfiable))
}

func TestSelectOverload(t *testing.T) {
	s := schema.MustOf(reflect.TypeOf(&person{}))
	ctors := s.Constructors()

	idx, score := SelectOverload(ctors, map[string]interface{}{"age": 1, "name": "x"})
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, score)

	idx, score = SelectOverload(ctors, map[string]interface{}{"age": 1, "firstname": "x", "lastname": "y"})
	assert.Equal(t, 0, idx)
	assert.Equal(t, 3, score)

	idx, score = SelectOverload(ctors, map[string]interface{}{})
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, score)
}

// overload builds a callable from folded parameter keys; a "?" prefix marks
// an optional parameter
func overload(keys ...string) *schema.Callable {
	c := &schema.Callable{Name: "f"}
	for _, k := range keys {
		p := schema.Param{Name: k, Key: k}
		if k[0] == '?' {
			p.Name, p.Key, p.Optional = k[1:], k[1:], true
		}
		c.Params = append(c.Params, p)
	}
	return c
}

func argSet(keys ...string) map[string]interface{} {
	args := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		args[k] = true
	}
	return args
}

func TestSelectOverloadOrder(t *testing.T) {
	threeArg := overload("age", "firstname", "lastname")
	twoArg := overload("age", "name")

	tests := []struct {
		name       string
		candidates []*schema.Callable
		args       map[string]interface{}
		wantIndex  int
		wantScore  int
	}{
		{"name_declared_second", []*schema.Callable{threeArg, twoArg}, argSet("age", "name"), 1, 2},
		{"name_declared_first", []*schema.Callable{twoArg, threeArg}, argSet("age", "name"), 0, 2},
		{"full_name_declared_second", []*schema.Callable{twoArg, threeArg}, argSet("age", "firstname", "lastname"), 1, 3},
		{"scores_0_0_1", []*schema.Callable{overload("x"), overload("y"), overload("name")}, argSet("name"), 2, 1},
		{"scores_2_0_3", []*schema.Callable{overload("a", "b"), overload("z"), overload("a", "b", "c")}, argSet("a", "b", "c"), 2, 3},
		{"scores_3_0_2", []*schema.Callable{overload("a", "b", "c"), overload("z"), overload("a", "b")}, argSet("a", "b", "c"), 0, 3},
		{"scores_1_2_1", []*schema.Callable{overload("a"), overload("a", "b"), overload("b")}, argSet("a", "b"), 1, 2},
		{"tie_keeps_first", []*schema.Callable{overload("a", "x"), overload("a", "y")}, argSet("a"), 0, 1},
		{"optional_params_do_not_score", []*schema.Callable{overload("a", "?b"), overload("b")}, argSet("b"), 1, 1},
		{"no_match_picks_first", []*schema.Callable{overload("x"), overload("y")}, argSet("q"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, score := SelectOverload(tt.candidates, tt.args)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestSelectOverloadPicksFirstMaximum(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "overloads")
		candidates := make([]*schema.Callable, n)
		for i := range candidates {
			keys := rapid.SliceOfDistinct(rapid.SampledFrom(pool), rapid.ID[string]).Draw(t, fmt.Sprintf("keys%d", i))
			candidates[i] = overload(keys...)
		}
		args := argSet(rapid.SliceOfDistinct(rapid.SampledFrom(pool), rapid.ID[string]).Draw(t, "args")...)

		scores := make([]int, n)
		wantScore := 0
		for i, c := range candidates {
			for _, p := range c.Params {
				if _, ok := args[p.Key]; ok {
					scores[i]++
				}
			}
			wantScore = max(wantScore, scores[i])
		}
		wantIndex := 0
		for scores[wantIndex] != wantScore {
			wantIndex++
		}

		idx, score := SelectOverload(candidates, args)
		if idx != wantIndex || score != wantScore {
			t.Fatalf("got (%d, %d), want first maximum (%d, %d)", idx, score, wantIndex, wantScore)
		}
	})
}

func TestSnapshotAndString(t *testing.T) {
	p := newPerson(100, "Smith", "Smith")

	fields, err := Snapshot(p)
	require.NoError(t, err)
	require.Len(t, fields, 4)
	assert.Equal(t, Field{Name: "Age", Value: 100}, fields[0])
	assert.True(t, fields[3].ReadOnly)

	assert.Equal(t, "person[Age: 100 FirstName: Smith LastName: Smith ID: ]", String(p))
	assert.Equal(t, "int", String(3))
}

type gadget struct {
	notify.Notifier
	Name  string
	Power float64
}

func TestCatalog(t *testing.T) {
	require.NoError(t, RegisterType("Gadget", &gadget{}))
	assert.True(t, errors.IsErrorCode(RegisterType("GADGET", &gadget{}), errors.ErrDuplicateKey))
	assert.Contains(t, TypeNames(), "Gadget")

	typ, ok := LookupType("gadget")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(&gadget{}), typ)

	obj, err := New("gadget", map[string]interface{}{"name": "drill", "power": 2})
	require.NoError(t, err)
	g := obj.(*gadget)
	assert.Equal(t, "drill", g.Name)
	assert.Equal(t, 2.0, g.Power)

	_, err = New("nothing", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrKeyNotFound))
}

func TestSetThenGetRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := &person{}
		age := rapid.Int().Draw(t, "age")
		name := rapid.String().Draw(t, "name")

		if err := Set(p, "age", age); err != nil {
			t.Fatalf("set age: %v", err)
		}
		if err := Set(p, "FirstName", name); err != nil {
			t.Fatalf("set name: %v", err)
		}
		got, _ := Get(p, "AGE")
		if got != age {
			t.Fatalf("age: got %v want %d", got, age)
		}
		got, _ = Get(p, "firstname")
		if got != name {
			t.Fatalf("name: got %q want %q", got, name)
		}
	})
}

func TestAgePlusMatchesArithmetic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		age := rapid.IntRange(-1000, 1000).Draw(t, "age")
		add := rapid.IntRange(-1000, 1000).Draw(t, "add")
		p := &person{Age: age}

		got, err := InvokeNamed(p, "ageplus", map[string]interface{}{"ADD": add})
		if err != nil {
			t.Fatal(err)
		}
		if got != age+add {
			t.Fatalf("got %v want %d", got, age+add)
		}
	})
}
