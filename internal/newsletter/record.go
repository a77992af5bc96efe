package newsletter

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Record types written to the destination type column.
const (
	TypeArticle = "Article"
	TypeChat    = "Chat"
)

// maxNameLen caps the title written to the destination.
const maxNameLen = 200

// maxTickers caps the mentioned-companies multi-select.
const maxTickers = 10

// dateLayout is the date format written to the destination date column.
const dateLayout = "2006-01-02T15:04"

// Record is one newsletter email in destination shape.
type Record struct {
	MessageID string
	Name      string
	Date      time.Time
	Sender    string
	Type      string
	URL       string
	Tickers   []string

	// Bodies are carried for content conversion and enrichment; they are
	// not destination properties.
	TextBody string
	HTMLBody string
}

// DateString formats the receipt date for the destination.
func (r *Record) DateString() string {
	return r.Date.Format(dateLayout)
}

// Key returns the identity used for duplicate detection across runs.
func (r *Record) Key() string {
	return Key(r.Name, r.Sender, r.DateString())
}

// Key derives the dedup identity from title, sender tag, and the date
// portion of a destination date string. The same derivation is applied
// to rows queried back from the destination, so a re-run over an
// unchanged mailbox sees every already-synced message.
func Key(name, sender, date string) string {
	if len(date) > 10 {
		date = date[:10]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s", name, sender, date)))
	return hex.EncodeToString(sum[:])[:16]
}

// IsWelcome reports whether a subject is a Substack welcome email, which
// is never synced.
func IsWelcome(subject string) bool {
	return strings.HasPrefix(strings.ToLower(subject), "welcome to ")
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
