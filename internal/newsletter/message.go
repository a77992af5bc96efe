package newsletter

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	htmlesc "html"

	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxsync/internal/gmail"
)

// zeroWidth matches invisible characters that leak out of newsletter
// HTML into subjects and text.
var zeroWidth = regexp.MustCompile(`[\x{034f}\x{200b}-\x{200f}\x{2028}-\x{202f}\x{205f}-\x{206f}\x{feff}]`)

// cleanText unescapes HTML entities and strips zero-width characters.
func cleanText(s string) string {
	return zeroWidth.ReplaceAllString(htmlesc.UnescapeString(s), "")
}

// FromMessage extracts a destination record from a full Gmail message.
// now supplies the fallback receipt date when the message carries none.
func FromMessage(m *gmailv1.Message, now time.Time) (*Record, error) {
	subject := cleanText(gmail.HeaderValue(m, "Subject"))
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("message %s has no subject", m.Id)
	}

	from := gmail.HeaderValue(m, "From")
	text, html := gmail.Bodies(m)

	url := ExtractArticleURL(text)
	if url == "" {
		url = ExtractArticleURL(html)
	}
	url = ValidateURL(url)

	r := &Record{
		MessageID: m.Id,
		Name:      truncateRunes(subject, maxNameLen),
		Date:      resolveDate(m, now),
		Sender:    SenderTag(from),
		Type:      classify(subject, url),
		URL:       url,
		Tickers:   ExtractTickers(subject, html),
		TextBody:  text,
		HTMLBody:  html,
	}
	if len(r.Tickers) > maxTickers {
		r.Tickers = r.Tickers[:maxTickers]
	}

	return r, nil
}

// resolveDate prefers the provider's internal receipt timestamp, falls
// back to the Date header, and finally to now. A malformed date never
// fails the record.
func resolveDate(m *gmailv1.Message, now time.Time) time.Time {
	if m.InternalDate > 0 {
		return time.UnixMilli(m.InternalDate).UTC()
	}
	if header := gmail.HeaderValue(m, "Date"); header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	return now
}

// classify labels a message as a chat thread or a regular article.
func classify(subject, url string) string {
	if strings.Contains(strings.ToLower(subject), "new thread from") || strings.Contains(url, "/chat/") {
		return TypeChat
	}
	return TypeArticle
}
