// Package gmail provides read-only access to the newsletter mailbox.
//
// The client wraps the Gmail Users service with the small surface the
// sync needs: a paginated message listing for the newsletter sender
// query, full-message retrieval, and helpers for header and MIME body
// extraction.
package gmail
