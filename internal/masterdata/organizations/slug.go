package organizations

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify folds name to lowercase ASCII words joined by hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}
	return b.String()
}

func validSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
