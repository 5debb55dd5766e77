package slugify

import "strings"

// Make normalizes a title into a URL-safe slug: lowercase, runs of
// non-alphanumeric characters collapsed into a single hyphen, leading
// and trailing hyphens trimmed. Returns "" when nothing survives
// normalization (e.g. a title made only of punctuation).
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSep := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

// IsValid reports whether s is already a well-formed slug, i.e.
// normalizing it is a no-op. Used to validate client-supplied slugs.
func IsValid(s string) bool {
	return s != "" && Make(s) == s
}
