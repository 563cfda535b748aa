// Package link scans free-form message text for download URLs.
package link

import "regexp"

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Find returns the first http(s) URL token in text. The match extends to the
// first whitespace character; when a message carries several URLs only the
// first one is used.
func Find(text string) (string, bool) {
	match := urlPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}
