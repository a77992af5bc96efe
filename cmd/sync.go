package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsync/internal/config"
	"github.com/teemow/inboxsync/internal/logging"
	"github.com/teemow/inboxsync/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	var (
		environment string
		maxEmails   int
		dryRun      bool
		debugMode   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one newsletter sync pass",
		Long: `Fetch Substack newsletter emails from Gmail, parse them into records,
and create pages in the configured Notion database(s).

Already-synced newsletters are detected by querying the primary database
and are skipped, so repeated runs are safe.

Configuration comes from environment variables (or a .env file):
  GMAIL_TOKEN          base64-encoded OAuth authorized-user JSON (required)
  NOTION_API_TOKEN     primary Notion integration token (required)
  NOTION_DATABASE_ID   primary database id (required)
  NOTION_API_TOKEN_2   optional mirror integration token
  NOTION_DATABASE_ID_2 optional mirror database id
  DEEPSEEK_API_KEY     optional translation credential
  ENABLE_TRANSLATION   gate for the translation stage (default: true)
  MAX_EMAIL_LIMIT      per-run fetch cap (default: 50)

With --env test, any variable may be overridden by its _TEST-suffixed
variant (e.g. NOTION_DATABASE_ID_TEST).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(debugMode)

			cfg, err := config.Load(environment)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-emails") {
				cfg.MaxEmails = maxEmails
			}
			slog.Debug("configuration loaded",
				slog.String("environment", string(cfg.Environment)),
				slog.String("notion_token", logging.SanitizeToken(cfg.NotionToken)),
				slog.Bool("mirror", cfg.MirrorEnabled()),
				slog.Bool("translation", cfg.TranslationEnabled()),
				slog.Int("max_emails", cfg.MaxEmails))

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			s, err := syncer.NewFromConfig(ctx, cfg, syncer.WithDryRun(dryRun))
			if err != nil {
				return fmt.Errorf("failed to set up sync: %w", err)
			}

			stats, err := s.Run(ctx)
			if err != nil {
				return err
			}
			if stats.WriteFailures > 0 && stats.Synced == 0 {
				return fmt.Errorf("all %d write(s) failed", stats.WriteFailures)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environment, "env", "prod", "Environment to load secrets for: prod or test")
	cmd.Flags().IntVar(&maxEmails, "max-emails", 0, "Override MAX_EMAIL_LIMIT for this run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without writing to Notion")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	return cmd
}

// setupLogging configures the process-wide structured logger.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
