// Package newsletter extracts structured records from Substack
// newsletter emails.
//
// A Record carries the destination fields (title, receipt date, sender
// tag, article/chat type, canonical URL, mentioned tickers) plus the
// message bodies. The package also converts newsletter HTML into
// destination content blocks and derives the dedup key that keeps
// repeated runs idempotent.
package newsletter
