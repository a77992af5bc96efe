// Package notion is a minimal client for the Notion REST API.
//
// Only the surface the sync needs is implemented: paginated database
// queries (for duplicate detection), page creation with properties and
// content blocks, and block-children appends for bodies longer than the
// per-request limit. The API revision is pinned via the Notion-Version
// header.
package notion
