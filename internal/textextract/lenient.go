package textextract

import (
	"encoding/json"
	"strings"
)

var literalWords = map[string]string{
	"None":  "null",
	"True":  "true",
	"False": "false",
}

// normalizeLiteral rewrites a Python-style literal into JSON: single-quoted
// strings become double-quoted, None/True/False become null/true/false and
// trailing commas before a closing bracket are dropped. Double-quoted strings
// are copied verbatim. It returns false on an unterminated string.
func normalizeLiteral(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			end, ok := scanDoubleQuoted(s, i)
			if !ok {
				return "", false
			}
			b.WriteString(s[i:end])
			i = end
		case c == '\'':
			val, end, ok := scanSingleQuoted(s, i)
			if !ok {
				return "", false
			}
			enc, err := json.Marshal(val)
			if err != nil {
				return "", false
			}
			b.Write(enc)
			i = end
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			word := s[i:j]
			if repl, ok := literalWords[word]; ok {
				b.WriteString(repl)
			} else {
				b.WriteString(word)
			}
			i = j
		case c == ',':
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				i = j
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), true
}

// scanDoubleQuoted returns the index just past the closing quote of the string starting at i.
func scanDoubleQuoted(s string, i int) (int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1, true
		}
	}
	return 0, false
}

// scanSingleQuoted decodes a single-quoted literal starting at i.
func scanSingleQuoted(s string, i int) (string, int, bool) {
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		switch c {
		case '\\':
			if j+1 >= len(s) {
				return "", 0, false
			}
			j++
			switch s[j] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[j])
			}
		case '\'':
			return b.String(), j + 1, true
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
