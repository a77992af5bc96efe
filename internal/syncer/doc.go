// Package syncer orchestrates one sync pass: fetch newsletter emails
// from Gmail, convert them to destination records and content blocks,
// enrich them when a translator is configured, and create pages in the
// primary (and optional mirror) Notion database.
//
// Runs are idempotent: the dedup key of every existing primary row is
// computed up front and already-synced messages are skipped. Failures
// on a single message are counted and skipped so one bad email never
// blocks the rest of the inbox.
package syncer
