package slnp

import "strings"

// escaper handles both substitutions in one pass so the backslash rule never
// touches the "\n" produced for a newline.
var escaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// Escape makes s safe to embed in a single protocol line.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape. Unknown escape sequences and a trailing lone
// backslash are kept verbatim.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
