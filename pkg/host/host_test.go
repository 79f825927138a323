package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dynreg/pkg/codec"
	"github.com/arthur-debert/dynreg/pkg/directory"
	"github.com/arthur-debert/dynreg/pkg/domain"
	"github.com/arthur-debert/dynreg/pkg/errors"
)

func newHost(t *testing.T) (*Host, *directory.Directory, *bytes.Buffer) {
	t.Helper()
	dir := directory.New()
	out := &bytes.Buffer{}
	h := New(dir, WithOutput(out))
	t.Cleanup(h.Close)
	return h, dir, out
}

func exec(t *testing.T, h *Host, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, h.Exec(line), line)
	return out.String()
}

func person(t *testing.T, dir *directory.Directory, key string) *domain.Person {
	t.Helper()
	obj, ok := dir.Member(key, directory.DefaultID)
	require.True(t, ok, key)
	return obj.(*domain.Person)
}

func TestExecRejectsUnknownAndMalformed(t *testing.T) {
	h, _, _ := newHost(t)

	assert.True(t, errors.IsErrorCode(h.Exec("fly away"), errors.ErrCommandUnknown))
	assert.True(t, errors.IsErrorCode(h.Exec("get p"), errors.ErrCommandParse))
	assert.True(t, errors.IsErrorCode(h.Exec(`get "p`), errors.ErrCommandParse))
	assert.NoError(t, h.Exec("   # nothing"))
	assert.NoError(t, h.Exec("HELP"), "command names are case-insensitive")
}

func TestNewAndList(t *testing.T) {
	h, dir, out := newHost(t)

	got := exec(t, h, out, "new p Person age=100 name=Smith")
	assert.Equal(t, "p = Person[Age: 100 FirstName: Smith LastName: Smith Name: Smith Smith]\n", got)

	exec(t, h, out, `new m Person age=100 firstName=Mark lastName="Smith"`)
	assert.Equal(t, "Mark", person(t, dir, "m").FirstName)

	err := h.Exec("new p Person age=1 name=x")
	assert.True(t, errors.IsErrorCode(err, errors.ErrDuplicateKey))
	assert.Equal(t, 100, person(t, dir, "p").Age)

	got = exec(t, h, out, "ls")
	assert.Equal(t, []string{
		"p = Person[Age: 100 FirstName: Smith LastName: Smith Name: Smith Smith]",
		"m = Person[Age: 100 FirstName: Mark LastName: Smith Name: Mark Smith]",
	}, strings.Split(strings.TrimSpace(got), "\n"))

	exec(t, h, out, "put p Person age=5 name=Kid")
	assert.Equal(t, 5, person(t, dir, "p").Age)

	exec(t, h, out, "rm m")
	assert.True(t, errors.IsErrorCode(h.Exec("rm m"), errors.ErrKeyNotFound))
	assert.True(t, errors.IsErrorCode(h.Exec("new q Ghost"), errors.ErrKeyNotFound))
	assert.True(t, errors.IsErrorCode(h.Exec("new q Person 100"), errors.ErrCommandParse))
}

func TestGetAndSet(t *testing.T) {
	h, dir, out := newHost(t)
	exec(t, h, out, "new p Person age=100 name=Smith")

	assert.Equal(t, "100\n", exec(t, h, out, "get p AGE"))

	exec(t, h, out, "set p age 42")
	assert.Equal(t, 42, person(t, dir, "p").Age)

	exec(t, h, out, "set p FirstName 42")
	assert.Equal(t, "42", person(t, dir, "p").FirstName, "string properties take the literal text")

	assert.Error(t, h.Exec("set p Age not-a-number"))
	assert.Equal(t, 42, person(t, dir, "p").Age)

	assert.Error(t, h.Exec(`set p Age "7"`), "quoted literals stay strings")
	assert.Error(t, h.Exec("get p Height"))
	assert.True(t, errors.IsErrorCode(h.Exec("get nobody Age"), errors.ErrKeyNotFound))
}

func TestCall(t *testing.T) {
	h, _, out := newHost(t)
	exec(t, h, out, "new p Person age=100 name=Smith")

	tests := []struct {
		line string
		want string
	}{
		{"call p AgePlus", "110\n"},
		{"call p AgePlus _", "110\n"},
		{"call p ageplus 5", "105\n"},
		{"call p AgePlus add=200", "300\n"},
		{"call p FullName", "Smith Smith\n"},
		{"call p Rename name=Prince", ""},
		{"call p FullName", "Prince Prince\n"},
		{`call p Rename "Ada" Lovelace`, ""},
		{"call p FullName", "Ada Lovelace\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exec(t, h, out, tt.line), tt.line)
	}

	assert.Error(t, h.Exec("call p Fly"))
	assert.Error(t, h.Exec("call p AgePlus 1 2"))
	assert.True(t, errors.IsErrorCode(h.Exec("call p AgePlus add=1 2"), errors.ErrCommandParse))
}

func TestCaches(t *testing.T) {
	h, dir, out := newHost(t)

	exec(t, h, out, "mkcache people")
	exec(t, h, out, "use people")
	assert.Equal(t, "people", h.Current())
	exec(t, h, out, "new p Person age=1 name=x")

	c, err := dir.Resolve("people")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count())
	assert.Zero(t, dir.Default().Count())

	got := exec(t, h, out, "caches")
	assert.Equal(t, "  default (0)\n* people (1)\n", got)

	assert.True(t, errors.IsErrorCode(h.Exec("use nowhere"), errors.ErrKeyNotFound))
}

func TestShowSaveLoad(t *testing.T) {
	h, dir, out := newHost(t)
	exec(t, h, out, "new p Person age=100 firstName=Mark lastName=Smith")

	got := exec(t, h, out, "show p json")
	assert.Contains(t, got, `"Age": 100`)
	assert.Contains(t, got, `"Name": "Mark Smith"`)

	got = exec(t, h, out, "show p")
	assert.Contains(t, got, "FirstName: Mark")

	for _, ext := range []string{"yaml", "json", "toml", "xml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "p."+ext)
			exec(t, h, out, "save p "+path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotEmpty(t, data)

			exec(t, h, out, "load copy Person "+path)
			copied := person(t, dir, "copy")
			assert.Equal(t, "Mark Smith", copied.FullName())
			assert.Equal(t, 100, copied.Age)
		})
	}

	assert.True(t, errors.IsErrorCode(h.Exec("show p ini"), errors.ErrUnsupportedFormat))
}

func TestDefaultFormatOption(t *testing.T) {
	dir := directory.New()
	out := &bytes.Buffer{}
	h := New(dir, WithOutput(out), WithFormat(codec.XML))
	require.NoError(t, h.Exec("new p Person age=1 name=x"))
	out.Reset()
	require.NoError(t, h.Exec("show p"))
	assert.Contains(t, out.String(), "<Person>")
}

func TestDescribe(t *testing.T) {
	h, _, out := newHost(t)
	got := exec(t, h, out, "describe person")

	assert.Contains(t, got, "Person\n")
	assert.Contains(t, got, "Name string (read-only)")
	assert.Contains(t, got, "AgePlus(add int = 10)")
	assert.Contains(t, got, "Rename(name string)")
	assert.Contains(t, got, "Person(age int, name string)")

	assert.Contains(t, exec(t, h, out, "types"), "Counter\n")
}

func TestWatch(t *testing.T) {
	h, _, out := newHost(t)
	exec(t, h, out, "new p Person age=1 name=x")

	assert.Equal(t, "watching default\n", exec(t, h, out, "watch"))
	assert.Equal(t, "~ cache default changed\n", exec(t, h, out, "set p Age 2"))
	assert.Equal(t, "", exec(t, h, out, "set p Age 2"), "unchanged values do not signal")

	exec(t, h, out, "unwatch")
	assert.Equal(t, "", exec(t, h, out, "set p Age 3"))
	assert.Error(t, h.Exec("unwatch"))
}

func TestRunContinuesAfterFailures(t *testing.T) {
	h, dir, out := newHost(t)
	script := strings.Join([]string{
		"# build a family",
		"new a Person age=40 name=Alpha",
		"set a Age lots",
		"new b Person age=10 name=Beta",
	}, "\n")

	err := h.Run(strings.NewReader(script))
	require.Error(t, err)
	assert.Equal(t, 3, errors.GetErrorDetails(err)["line"])
	assert.Contains(t, out.String(), "error:")
	assert.Equal(t, 10, person(t, dir, "b").Age)

	assert.NoError(t, h.Run(strings.NewReader("ls\n")))
}
