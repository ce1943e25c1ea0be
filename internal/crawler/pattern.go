package crawler

import (
	"path"
	"strings"

	"github.com/nao1215/padwatch/internal/model"
)

// ignored reports whether a discovered link is excluded from the crawl by
// the configured ignore patterns. Patterns are matched against the pad name,
// or against "server/name" when they contain a slash.
func (c *Crawler) ignored(link model.Link) bool {
	for _, pattern := range c.ignorePatterns {
		subject := link.Name
		if strings.Contains(pattern, "/") {
			subject = link.Server + "/" + link.Name
		}
		if matchPattern(pattern, subject) {
			return true
		}
	}
	return false
}

// matchPattern checks if s matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of characters except '/'
//   - ? to match any single character
//   - [...] character classes
//
// A malformed pattern never matches.
//
// Examples:
//   - "draft-*" matches "draft-agenda"
//   - "pads.example.org/*" matches every pad on that server
func matchPattern(pattern, s string) bool {
	matched, err := path.Match(pattern, s)
	if err != nil {
		return false
	}
	return matched
}
