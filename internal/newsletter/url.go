package newsletter

import (
	"regexp"
	"strings"
)

// maxURLLen caps URLs written to the destination.
const maxURLLen = 2000

var (
	softBreak     = regexp.MustCompile(`=\r?\n`)
	whitespace    = regexp.MustCompile(`\s+`)
	bareDomain    = regexp.MustCompile(`^[a-zA-Z0-9][-a-zA-Z0-9]*\.[a-zA-Z]{2,}`)
	httpURLPrefix = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9]`)
)

// articleURLPatterns locate the canonical article link in newsletter
// bodies, in priority order. Patterns with a capture group extract that
// group; the rest match the URL directly.
var articleURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)View in browser\s*\(\s*(https://[^\s\)]+)`),
	regexp.MustCompile(`(?i)x-newsletter:\s*(https://[^\s]+)`),
	regexp.MustCompile(`(?i)View this post on the web at\s+(https://[^\s<>"]+)`),
	regexp.MustCompile(`(?i)https://[a-zA-Z0-9-]+\.substack\.com/p/[a-zA-Z0-9-]+`),
	regexp.MustCompile(`(?i)https://newsletter\.[a-zA-Z0-9-]+\.com/p/[a-zA-Z0-9-]+`),
}

// CleanURL strips the query string from a URL.
func CleanURL(url string) string {
	if url == "" {
		return ""
	}
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// ValidateURL repairs common newsletter URL damage (soft line breaks,
// protocol-relative links, bare domains) and returns the fixed URL, or
// "" if it cannot be made valid.
func ValidateURL(url string) string {
	if url == "" {
		return ""
	}

	url = strings.TrimSpace(url)
	url = softBreak.ReplaceAllString(url, "")
	url = whitespace.ReplaceAllString(url, "")

	switch {
	case strings.HasPrefix(url, "//"):
		url = "https:" + url
	case !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "mailto:"):
		if bareDomain.MatchString(url) {
			url = "https://" + url
		} else {
			return ""
		}
	}

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if !httpURLPrefix.MatchString(url) {
			return ""
		}
		if len(url) > maxURLLen {
			url = url[:maxURLLen]
		}
		return url
	}

	if strings.HasPrefix(url, "mailto:") {
		return url
	}

	return ""
}

// ExtractArticleURL finds the canonical article link in a message body.
func ExtractArticleURL(body string) string {
	for _, pattern := range articleURLPatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		url := m[0]
		if len(m) > 1 && m[1] != "" {
			url = m[1]
		}
		return CleanURL(url)
	}
	return ""
}

var (
	beehiivCDN     = regexp.MustCompile(`(https://media\.beehiiv\.com/)cdn-cgi/image/[^/]+/(.*?)(?:\?.*)?$`)
	stratecheryCDN = regexp.MustCompile(`^https://i\d\.wp\.com/(stratechery\.com/[^?]+)`)
)

// ConvertImageURL rewrites CDN-proxied image URLs to their origin form
// so the destination can fetch them.
func ConvertImageURL(url string) string {
	if url == "" {
		return url
	}

	if strings.Contains(url, "media.beehiiv.com/cdn-cgi") {
		if m := beehiivCDN.FindStringSubmatch(url); m != nil {
			return m[1] + m[2]
		}
	}

	if m := stratecheryCDN.FindStringSubmatch(url); m != nil {
		return "https://" + m[1]
	}

	return url
}
