package media

import "strings"

const unsafeFilenameChars = `\/:*?"<>|`

// SanitizeFilename replaces path separators and other characters that are
// unsafe in a filesystem name with underscores. It is total and
// length-preserving; applying it twice yields the same result as once.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFilenameChars, r) {
			return '_'
		}
		return r
	}, name)
}
