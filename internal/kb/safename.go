package kb

import "strings"

// DefaultMaxNameLength bounds generated file name components so deeply
// nested article trees stay well under filesystem path limits.
const DefaultMaxNameLength = 50

// SafeFileName converts an arbitrary attachment name into a safe path
// component: characters illegal in path components become underscores,
// runs of underscores collapse to one, leading/trailing underscores are
// trimmed, and the result is truncated to maxLen runes (re-trimming any
// trailing underscore the cut exposes). The function is deterministic and
// idempotent.
func SafeFileName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if isIllegalNameRune(r) {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	s := strings.Trim(b.String(), "_")
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
		s = strings.TrimRight(s, "_")
	}
	return s
}

// isIllegalNameRune reports whether r may not appear in a path component.
// The set covers Windows-illegal characters plus control characters, so
// exports are portable across filesystems.
func isIllegalNameRune(r rune) bool {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return r < 0x20
}
