package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxsync/internal/config"
	"github.com/teemow/inboxsync/internal/gmail"
	"github.com/teemow/inboxsync/internal/logging"
	"github.com/teemow/inboxsync/internal/newsletter"
	"github.com/teemow/inboxsync/internal/notion"
	"github.com/teemow/inboxsync/internal/translate"
)

// MessageSource lists and fetches mail messages.
type MessageSource interface {
	ListMessages(q string, maxResults int64) ([]*gmailv1.Message, error)
	GetMessage(messageID string) (*gmailv1.Message, error)
}

// Destination writes pages to and reads rows from a Notion database.
type Destination interface {
	QueryDatabase(ctx context.Context, databaseID, startCursor string) (*notion.QueryResult, error)
	CreatePageWithBlocks(ctx context.Context, databaseID string, props notion.Properties, children []notion.Block) (*notion.Page, error)
}

// Translator enriches content blocks in place.
type Translator interface {
	Translate(ctx context.Context, blocks []notion.Block) error
}

// Stats counts the outcomes of one sync run.
type Stats struct {
	Fetched       int
	Synced        int
	Duplicates    int
	Welcome       int
	ParseFailures int
	WriteFailures int
}

// Syncer copies newsletter emails from a mail source into one or two
// Notion databases, once per Run.
type Syncer struct {
	source     MessageSource
	primary    Destination
	primaryDB  string
	mirror     Destination
	mirrorDB   string
	translator Translator

	query     string
	maxEmails int
	dryRun    bool

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithMirror adds the optional secondary destination.
func WithMirror(dest Destination, databaseID string) Option {
	return func(s *Syncer) {
		s.mirror = dest
		s.mirrorDB = databaseID
	}
}

// WithTranslator enables content enrichment.
func WithTranslator(t Translator) Option {
	return func(s *Syncer) { s.translator = t }
}

// WithQuery overrides the mail search query.
func WithQuery(q string) Option {
	return func(s *Syncer) { s.query = q }
}

// WithMaxEmails caps how many messages one run fetches.
func WithMaxEmails(n int) Option {
	return func(s *Syncer) { s.maxEmails = n }
}

// WithDryRun parses and reports without writing to any destination.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) { s.dryRun = dryRun }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// New creates a Syncer for the required primary destination.
func New(source MessageSource, primary Destination, primaryDB string, opts ...Option) *Syncer {
	s := &Syncer{
		source:    source,
		primary:   primary,
		primaryDB: primaryDB,
		query:     gmail.NewsletterQuery(),
		maxEmails: 50,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wires a Syncer from runtime configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Syncer, error) {
	credential, err := cfg.GmailCredentialJSON()
	if err != nil {
		return nil, err
	}

	source, err := gmail.NewClient(ctx, credential)
	if err != nil {
		return nil, err
	}

	all := []Option{WithMaxEmails(cfg.MaxEmails)}
	if cfg.MirrorEnabled() {
		all = append(all, WithMirror(notion.NewClient(cfg.NotionToken2), cfg.NotionDatabaseID2))
	}
	if cfg.TranslationEnabled() {
		all = append(all, WithTranslator(translate.New(cfg.DeepSeekAPIKey)))
	}
	all = append(all, opts...)

	return New(source, notion.NewClient(cfg.NotionToken), cfg.NotionDatabaseID, all...), nil
}

// Run executes one sync pass. Per-message failures are counted and
// skipped; only source listing errors abort the run.
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	logger := logging.WithOperation(s.logger, "sync.run")
	stats := &Stats{}
	start := s.now()

	existing := s.existingKeys(ctx, logger)

	refs, err := s.source.ListMessages(s.query, int64(s.maxEmails))
	if err != nil {
		return stats, fmt.Errorf("failed to list newsletter messages: %w", err)
	}
	stats.Fetched = len(refs)
	logger.Info("fetched newsletter messages", slog.Int("count", len(refs)))

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		msg, err := s.source.GetMessage(ref.Id)
		if err != nil {
			stats.ParseFailures++
			logger.Warn("failed to fetch message",
				logging.Service("gmail"),
				logging.MessageID(ref.Id), logging.Err(err))
			continue
		}

		record, err := newsletter.FromMessage(msg, s.now())
		if err != nil {
			stats.ParseFailures++
			logger.Warn("failed to parse message",
				logging.MessageID(ref.Id),
				logging.UserHash(gmail.HeaderValue(msg, "From")),
				logging.Err(err))
			continue
		}

		if newsletter.IsWelcome(record.Name) {
			stats.Welcome++
			continue
		}

		key := record.Key()
		if _, dup := existing[key]; dup {
			stats.Duplicates++
			continue
		}

		if err := s.syncRecord(ctx, logger, record); err != nil {
			stats.WriteFailures++
			logger.Error("failed to write record",
				logging.Service("notion"),
				logging.MessageID(record.MessageID),
				logging.Database("primary"),
				logging.Err(err))
			continue
		}

		existing[key] = struct{}{}
		stats.Synced++
	}

	logger.Info("sync run finished",
		logging.Status(logging.StatusSuccess),
		slog.Duration(logging.KeyDuration, s.now().Sub(start)),
		slog.Int("fetched", stats.Fetched),
		slog.Int("synced", stats.Synced),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("welcome", stats.Welcome),
		slog.Int("parse_failures", stats.ParseFailures),
		slog.Int("write_failures", stats.WriteFailures))
	return stats, nil
}

// syncRecord converts, enriches, and writes one record. The mirror write
// is best effort; only the primary write decides success.
func (s *Syncer) syncRecord(ctx context.Context, logger *slog.Logger, record *newsletter.Record) error {
	blocks := s.contentBlocks(ctx, logger, record)

	if s.dryRun {
		logger.Info("dry run, skipping write",
			logging.MessageID(record.MessageID),
			slog.String("name", record.Name),
			slog.Int("blocks", len(blocks)))
		return nil
	}

	if _, err := s.primary.CreatePageWithBlocks(ctx, s.primaryDB, s.properties(record, true), blocks); err != nil {
		return err
	}
	logger.Info("synced newsletter",
		logging.MessageID(record.MessageID),
		slog.String("name", record.Name),
		slog.String("sender", record.Sender))

	if s.mirror != nil {
		if _, err := s.mirror.CreatePageWithBlocks(ctx, s.mirrorDB, s.properties(record, false), blocks); err != nil {
			logger.Warn("failed to write mirror record",
				logging.MessageID(record.MessageID),
				logging.Database("mirror"),
				logging.Err(err))
		}
	}
	return nil
}

// contentBlocks builds the page body for a record, with enrichment when
// configured. Enrichment failures degrade to the untranslated body.
func (s *Syncer) contentBlocks(ctx context.Context, logger *slog.Logger, record *newsletter.Record) []notion.Block {
	blocks := newsletter.BlocksFromHTML(record.HTMLBody)
	if len(blocks) == 0 {
		blocks = newsletter.BlocksFromText(record.TextBody)
	}

	if s.translator != nil && len(blocks) > 0 {
		if err := s.translator.Translate(ctx, blocks); err != nil {
			logger.Warn("translation failed, syncing untranslated",
				logging.MessageID(record.MessageID), logging.Err(err))
		}
	}

	return newsletter.SanitizeBlocks(blocks)
}

// properties builds the destination row. The pending status is written
// to the primary database only.
func (s *Syncer) properties(record *newsletter.Record, withStatus bool) notion.Properties {
	props := notion.Properties{
		notion.PropName:   notion.TitleProperty(record.Name),
		notion.PropDate:   notion.DateProperty(record.DateString()),
		notion.PropSender: notion.SelectProperty(record.Sender),
		notion.PropType:   notion.SelectProperty(record.Type),
	}
	if record.URL != "" {
		props[notion.PropURL] = notion.URLProperty(record.URL)
	}
	if len(record.Tickers) > 0 {
		props[notion.PropCompanies] = notion.MultiSelectProperty(record.Tickers)
	}
	if withStatus {
		props[notion.PropStatus] = notion.SelectProperty(notion.StatusPending)
	}
	return props
}

// existingKeys derives dedup keys from every row already in the primary
// database. A query failure degrades to an empty set: the run proceeds
// and may recreate rows rather than silently doing nothing.
func (s *Syncer) existingKeys(ctx context.Context, logger *slog.Logger) map[string]struct{} {
	keys := make(map[string]struct{})
	cursor := ""

	for {
		result, err := s.primary.QueryDatabase(ctx, s.primaryDB, cursor)
		if err != nil {
			logger.Warn("failed to query existing rows, deduplication disabled for this run",
				logging.Service("notion"),
				logging.Database("primary"), logging.Err(err))
			return make(map[string]struct{})
		}

		for i := range result.Results {
			page := &result.Results[i]
			name := page.TitleText(notion.PropName)
			if name == "" {
				continue
			}
			keys[newsletter.Key(name, page.SelectName(notion.PropSender), page.DateStart(notion.PropDate))] = struct{}{}
		}

		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return keys
}
