package template

import (
	"strings"
	"unicode"
)

// Render substitutes ${name} and $name placeholders in text with values
// from vars. Placeholders without a matching variable are left literal,
// and "$$" renders a single "$". Render never fails; malformed
// placeholders pass through unchanged.
func Render(text string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		if i+1 >= len(text) {
			b.WriteByte(c)
			break
		}

		next := text[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i += 2
		case next == '{':
			end := strings.IndexByte(text[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			name := text[i+2 : i+2+end]
			if v, ok := lookup(vars, name); ok {
				b.WriteString(v)
			} else {
				b.WriteString(text[i : i+3+end])
			}
			i += 3 + end
		case isIdentStart(rune(next)):
			j := i + 1
			for j < len(text) && isIdentPart(rune(text[j])) {
				j++
			}
			name := text[i+1 : j]
			if v, ok := lookup(vars, name); ok {
				b.WriteString(v)
			} else {
				b.WriteString(text[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

func lookup(vars map[string]string, name string) (string, bool) {
	if name == "" || !validIdent(name) {
		return "", false
	}
	v, ok := vars[name]
	return v, ok
}

func validIdent(name string) bool {
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if i > 0 && !isIdentPart(r) {
			return false
		}
	}
	return true
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
