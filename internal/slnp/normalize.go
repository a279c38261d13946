package slnp

import "strings"

var cleaner = strings.NewReplacer("\r", "", "\x00", "")

// Normalize strips carriage returns and NUL bytes and trims surrounding
// whitespace from a raw parameter value.
func Normalize(value string) string {
	return strings.TrimSpace(cleaner.Replace(value))
}
