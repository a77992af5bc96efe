// Package cmd implements the command-line interface for inboxsync.
//
// This package provides the following commands:
//   - sync: Run one newsletter sync pass from Gmail to Notion
//   - serve: Run syncs on a cron schedule with metrics and health endpoints
//   - version: Display version information
//
// The sync command is the default command when no subcommand is specified.
package cmd
