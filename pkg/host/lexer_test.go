package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", []string{}},
		{"spaces", "  get  p   Age ", []string{"get", "p", "Age"}},
		{"tabs", "get\tp\tAge", []string{"get", "p", "Age"}},
		{"double_quotes", `set p Name "Mark Smith"`, []string{"set", "p", "Name", "Mark Smith"}},
		{"single_quotes", `set p Name 'a "b" c'`, []string{"set", "p", "Name", `a "b" c`}},
		{"escapes", `say "a \"quoted\" \\ word"`, []string{"say", `a "quoted" \ word`}},
		{"backslash_space", `say a\ b`, []string{"say", "a b"}},
		{"named_quoted", `new p Person name="Mark Smith"`, []string{"new", "p", "Person", "name=Mark Smith"}},
		{"comment", "ls # everything", []string{"ls"}},
		{"hash_inside_word", "get p#1 Age", []string{"get", "p#1", "Age"}},
		{"empty_quotes", `set p Name ""`, []string{"set", "p", "Name", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, texts(tokens)...))
		})
	}
}

func TestTokenizeQuotingAndAssign(t *testing.T) {
	tokens, err := Tokenize(`42 "42" age=100 name="x=y" "a=b"`)
	require.NoError(t, err)
	require.Len(t, tokens, 5)

	assert.False(t, tokens[0].Quoted)
	assert.True(t, tokens[1].Quoted)

	name, value, ok := tokens[2].Named()
	require.True(t, ok)
	assert.Equal(t, "age", name)
	assert.Equal(t, "100", value)

	name, value, ok = tokens[3].Named()
	require.True(t, ok)
	assert.Equal(t, "name", name)
	assert.Equal(t, "x=y", value)

	_, _, ok = tokens[4].Named()
	assert.False(t, ok, "a quoted = is not an assignment")
}

func TestTokenizeUnterminated(t *testing.T) {
	for _, line := range []string{`say "open`, `say 'open`} {
		_, err := Tokenize(line)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCommandParse), line)
	}
}
