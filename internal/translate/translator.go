package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teemow/inboxsync/internal/logging"
	"github.com/teemow/inboxsync/internal/notion"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"

	// Batch limits keep a single completion request within the model's
	// comfortable context.
	maxBatchChars  = 6000
	maxBatchBlocks = 80

	// maxTranslationLen caps an appended translation span below the
	// destination's rich text limit.
	maxTranslationLen = 1900

	minParagraphLen = 20
	minHeadingLen   = 5
)

const systemPrompt = "You are a professional financial translator. Translate the " +
	"following English newsletter segments into Simplified Chinese. Each segment " +
	"is prefixed with a marker like [P1]. Reply with the same markers, each " +
	"followed by the Chinese translation of that segment only. Keep company " +
	"names, stock tickers, and numbers unchanged. Do not add commentary."

var marker = regexp.MustCompile(`\[P(\d+)\]`)

// Translator appends Chinese translations to newsletter content blocks
// using a DeepSeek chat completion endpoint.
type Translator struct {
	client *openai.Client
	model  string
}

// Option configures a Translator.
type Option func(*openai.ClientConfig)

// WithBaseURL overrides the completion endpoint.
func WithBaseURL(url string) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.BaseURL = url
	}
}

// New creates a Translator against the DeepSeek API.
func New(apiKey string, opts ...Option) *Translator {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultBaseURL
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Translator{
		client: openai.NewClientWithConfig(cfg),
		model:  defaultModel,
	}
}

// Translate appends a translation span to every translatable text block,
// in place. Blocks that are too short, already Chinese, or purely
// numeric are left untouched. A failed batch leaves its blocks
// untranslated and does not stop later batches; the joined batch errors
// are returned.
func (t *Translator) Translate(ctx context.Context, blocks []notion.Block) error {
	indexes := translatable(blocks)
	if len(indexes) == 0 {
		return nil
	}

	var errs []error
	for n, batch := range splitBatches(blocks, indexes) {
		if err := t.translateBatch(ctx, blocks, batch); err != nil {
			slog.Warn("translation batch failed, blocks left untranslated",
				logging.Operation("translate"),
				slog.Int("batch", n+1),
				slog.Int("blocks", len(batch)),
				logging.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// translatable returns the indexes of blocks worth translating.
func translatable(blocks []notion.Block) []int {
	var indexes []int
	for i := range blocks {
		if shouldTranslate(&blocks[i]) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func shouldTranslate(b *notion.Block) bool {
	texts := b.Texts()
	if texts == nil {
		return false
	}
	text := strings.TrimSpace(b.PlainText())
	if text == "" {
		return false
	}

	minLen := minParagraphLen
	if b.IsHeading() {
		minLen = minHeadingLen
	}
	if len([]rune(text)) < minLen {
		return false
	}

	if cjkRatio(text) > 0.3 {
		return false
	}

	// List markers, prices, and dates carry no prose to translate.
	if isMostlyNumeric(text) {
		return false
	}

	return true
}

// cjkRatio reports the share of CJK runes among the letters of s.
func cjkRatio(s string) float64 {
	var letters, cjk int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(cjk) / float64(letters)
}

func isMostlyNumeric(s string) bool {
	var letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters < 3
}

// batch is one completion request worth of block indexes.
type batch []int

// splitBatches groups block indexes so each request stays under the
// character and block limits.
func splitBatches(blocks []notion.Block, indexes []int) []batch {
	var batches []batch
	var current batch
	chars := 0

	for _, i := range indexes {
		size := len(blocks[i].PlainText())
		if len(current) > 0 && (chars+size > maxBatchChars || len(current) >= maxBatchBlocks) {
			batches = append(batches, current)
			current = nil
			chars = 0
		}
		current = append(current, i)
		chars += size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func (t *Translator) translateBatch(ctx context.Context, blocks []notion.Block, b batch) error {
	var sb strings.Builder
	for n, i := range b {
		fmt.Fprintf(&sb, "[P%d] %s\n", n+1, strings.TrimSpace(blocks[i].PlainText()))
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0.3,
		MaxTokens:   8000,
	})
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}

	translations := parseMarkedResponse(resp.Choices[0].Message.Content)
	for n, i := range b {
		translation, ok := translations[n+1]
		if !ok || translation == "" {
			slog.Warn("translation segment missing",
				logging.Operation("translate"),
				slog.Int("segment", n+1))
			continue
		}
		appendTranslation(&blocks[i], translation)
	}
	return nil
}

// parseMarkedResponse splits a [Pn]-marked completion back into numbered
// segments.
func parseMarkedResponse(content string) map[int]string {
	matches := marker.FindAllStringSubmatchIndex(content, -1)
	segments := make(map[int]string, len(matches))

	for i, m := range matches {
		n, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			continue
		}
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		segments[n] = strings.TrimSpace(content[m[1]:end])
	}
	return segments
}

// appendTranslation adds the translation as a gray italic span on a new
// line after the original text.
func appendTranslation(b *notion.Block, translation string) {
	runes := []rune(translation)
	if len(runes) > maxTranslationLen {
		translation = string(runes[:maxTranslationLen])
	}

	texts := b.Texts()
	texts = append(texts, notion.RichText{
		Type: "text",
		Text: &notion.TextContent{Content: "\n" + translation},
		Annotations: &notion.Annotations{
			Italic: true,
			Color:  "gray",
		},
	})
	b.SetTexts(texts)
}
