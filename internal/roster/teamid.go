package roster

import "strings"

// NormalizeTeamID converts a display name or user-supplied id into the
// canonical team id form: lowercase, alphanumeric, with runs of separators
// collapsed to single hyphens.
func NormalizeTeamID(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))

	var builder strings.Builder
	builder.Grow(len(raw))
	pendingHyphen := false
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingHyphen = false
			builder.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.', r == '/':
			pendingHyphen = true
		default:
			// Drop everything else: punctuation, diacritics, emoji.
		}
	}
	return builder.String()
}
