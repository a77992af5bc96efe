package newsletter

import (
	"regexp"
	"strings"
)

// sourceNames maps subscribed sender addresses to display names used in
// the destination sender column.
var sourceNames = map[string]string{
	"lobwedge@substack.com":           "LW Research",
	"robonomics@substack.com":         "Robonomics",
	"purpledrink@substack.com":        "Purple Drinks",
	"nathanbancroft@substack.com":     "Nathan",
	"jamesbulltard@substack.com":      "Bulltrad",
	"globalsemiresearch@substack.com": "GlobalSemiresearch",
	"wukong123@substack.com":          "Wukong",
	"robs@substack.com":               "Robs",
	"oreo521@substack.com":            "Oreo",
	"franktrading@substack.com":       "Frank",
	"tmtbreakout@substack.com":        "TMTB",
	"semianalysis@substack.com":       "SemiAnalysis",
	"capitalflows@substack.com":       "CapitalFlows",
	"sleepysol@substack.com":          "SleepySol",
	"globaltechresearch@substack.com": "GlobalTechResearch",
	"citrini@substack.com":            "Citrini",
}

var (
	angleAddr = regexp.MustCompile(`<([^>]+)>`)
	localPart = regexp.MustCompile(`^([^@]+)@`)
)

// SenderTag maps a From header to the sender display name. Unknown
// senders fall back to the address local part.
func SenderTag(from string) string {
	if from == "" {
		return "unknown"
	}

	addr := from
	if m := angleAddr.FindStringSubmatch(from); m != nil {
		addr = m[1]
	}

	lower := strings.ToLower(addr)
	for email, name := range sourceNames {
		if strings.Contains(lower, email) {
			return name
		}
	}

	if m := localPart.FindStringSubmatch(addr); m != nil {
		tag := strings.ToLower(m[1])
		// Strip plus-addressing suffixes.
		if i := strings.IndexByte(tag, '+'); i >= 0 {
			tag = tag[:i]
		}
		return tag
	}

	return "unknown"
}
