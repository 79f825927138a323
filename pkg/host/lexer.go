package host

import (
	"strings"

	"github.com/arthur-debert/dynreg/pkg/errors"
)

// Token is one word of a command line. Quoted is set when any part of the
// word was quoted; quoted words are never typed as numbers or booleans.
// Assign is the byte offset of the first unquoted '=', or -1.
type Token struct {
	Text   string
	Quoted bool
	Assign int
}

// Named splits a name=value token
func (t Token) Named() (name, value string, ok bool) {
	if t.Assign < 0 {
		return "", "", false
	}
	return t.Text[:t.Assign], t.Text[t.Assign+1:], true
}

// Tokenize splits a command line into words. Words are separated by spaces
// or tabs; single quotes keep their content verbatim, double quotes allow
// \" and \\ escapes, and an unquoted # starts a comment.
func Tokenize(line string) ([]Token, error) {
	var (
		tokens []Token
		cur    strings.Builder
		quoted bool
		inWord bool
		assign = -1
	)
	flush := func() {
		if inWord {
			tokens = append(tokens, Token{Text: cur.String(), Quoted: quoted, Assign: assign})
		}
		cur.Reset()
		quoted, inWord, assign = false, false, -1
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			flush()
		case r == '#' && !inWord:
			flush()
			return tokens, nil
		case r == '\'':
			end := indexRune(runes, i+1, '\'')
			if end < 0 {
				return nil, errors.New(errors.ErrCommandParse, "unterminated single quote")
			}
			cur.WriteString(string(runes[i+1 : end]))
			quoted, inWord = true, true
			i = end
		case r == '"':
			i++
			closed := false
			for ; i < len(runes); i++ {
				if runes[i] == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\') {
					i++
					cur.WriteRune(runes[i])
					continue
				}
				if runes[i] == '"' {
					closed = true
					break
				}
				cur.WriteRune(runes[i])
			}
			if !closed {
				return nil, errors.New(errors.ErrCommandParse, "unterminated double quote")
			}
			quoted, inWord = true, true
		case r == '\\' && i+1 < len(runes):
			i++
			cur.WriteRune(runes[i])
			inWord = true
		default:
			if r == '=' && assign < 0 {
				assign = cur.Len()
			}
			cur.WriteRune(r)
			inWord = true
		}
	}
	flush()
	return tokens, nil
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
