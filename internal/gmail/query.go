package gmail

import (
	"fmt"
	"strings"
)

// DefaultSenders are the subscribed newsletter source addresses.
var DefaultSenders = []string{
	"lobwedge@substack.com",
	"robonomics@substack.com",
	"purpledrink@substack.com",
	"nathanbancroft@substack.com",
	"jamesbulltard@substack.com",
	"globalsemiresearch@substack.com",
	"wukong123@substack.com",
	"robs@substack.com",
	"oreo521@substack.com",
	"franktrading@substack.com",
	"tmtbreakout@substack.com",
	"semianalysis@substack.com",
	"capitalflows@substack.com",
	"sleepysol@substack.com",
	"globaltechresearch@substack.com",
	"citrini@substack.com",
}

// defaultExclusions filters out Substack account noise that arrives from
// the same senders as the articles.
var defaultExclusions = []string{
	"sign in to substack",
	"upgrade to a paid subscription",
	"your payment receipt from",
}

// BuildQuery assembles the Gmail search query for the given sender list.
func BuildQuery(senders []string, exclusions []string) string {
	var b strings.Builder
	b.WriteString("from:(")
	b.WriteString(strings.Join(senders, " OR "))
	b.WriteString(")")
	for _, e := range exclusions {
		fmt.Fprintf(&b, " -%q", e)
	}
	return b.String()
}

// NewsletterQuery returns the query for the default sender set.
func NewsletterQuery() string {
	return BuildQuery(DefaultSenders, defaultExclusions)
}
