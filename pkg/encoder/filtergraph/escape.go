package filtergraph

import "strings"

// ffmpeg reads filter options twice. The graph parser first cuts the option string at an unprotected
// "[],;" and removes one level of quotes and backslashes. Each filter then splits what is left at an
// unprotected ":" and removes a second level. A value holding a ":" must therefore be written "12\\:00".
const (
	// Escaped inside each option value
	optionSpecials = `\':`
	// Escaped in the whole option string of a filter
	graphSpecials = `\'[],;`
	blanks        = " \t\n\r"
)

func isBlank(c byte) bool {
	return strings.IndexByte(blanks, c) >= 0
}

// isKeyChar Characters ffmpeg accepts in an option name
func isKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.IndexByte("-_./", c) >= 0
}

// escape Backslash every character of specials, and the leading and trailing blanks that would be trimmed
func escape(v string, specials string) string {
	first, last := 0, len(v)
	for first < len(v) && isBlank(v[first]) {
		first++
	}
	for last > first && isBlank(v[last-1]) {
		last--
	}
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if strings.IndexByte(specials, c) >= 0 || i < first || i >= last {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// escapeOption Protect a value from the option level. A "=" would turn a positional value into a key
func escapeOption(v string, positional bool) string {
	if positional {
		return escape(v, optionSpecials+"=")
	}
	return escape(v, optionSpecials)
}

// escapeOptions Protect the whole option string of a filter from the graph level
func escapeOptions(s string) string {
	return escape(s, graphSpecials)
}

// unquoted Result of one unescaping level. offsets holds the source offset of every byte of text
type unquoted struct {
	text    []byte
	offsets []int
	// Bytes of text that came from quotes or escapes, and survive trimming
	keep int
}

func (u *unquoted) add(c byte, offset int, protected bool) {
	u.text = append(u.text, c)
	u.offsets = append(u.offsets, offset)
	if protected {
		u.keep = len(u.text)
	}
}

// trimmed Drop the unprotected trailing blanks
func (u *unquoted) trimmed() ([]byte, []int) {
	end := len(u.text)
	for end > u.keep && isBlank(u.text[end-1]) {
		end--
	}
	return u.text[:end], u.offsets[:end]
}

// unquote Remove one level of quotes and backslashes from src[start:], stopping at the first unprotected
// byte of stops. at maps an index of src to a source offset for errors. Returns the index it stopped at
func (p *parser) unquote(src []byte, at func(int) int, start int, stops string) (*unquoted, int, error) {
	u := &unquoted{}
	i := start
	for i < len(src) && isBlank(src[i]) {
		i++
	}
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\':
			if i+1 >= len(src) {
				return nil, i, p.errorf(at(i), nil, "dangling escape at end of options")
			}
			u.add(src[i+1], at(i+1), true)
			i += 2
		case c == '\'':
			closing := -1
			for k := i + 1; k < len(src); k++ {
				if src[k] == '\'' {
					closing = k
					break
				}
			}
			if closing < 0 {
				return nil, i, p.errorf(at(i), nil, "unterminated quote")
			}
			for k := i + 1; k < closing; k++ {
				u.add(src[k], at(k), true)
			}
			u.keep = len(u.text)
			i = closing + 1
		case strings.IndexByte(stops, c) >= 0:
			return u, i, nil
		default:
			u.add(c, at(i), false)
			i++
		}
	}
	return u, i, nil
}
