package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, folds runs of whitespace into
// one space and cuts the result to maxLen runes (0 means no limit). Cutting by rune
// keeps accented names such as "Açaí" valid UTF-8.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	runes := 0
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxLen > 0 && runes+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		if maxLen > 0 && runes >= maxLen {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
