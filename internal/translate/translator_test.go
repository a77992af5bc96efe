package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxsync/internal/notion"
)

func paragraph(text string) notion.Block {
	return notion.NewTextBlock(notion.BlockParagraph, []notion.RichText{
		{
			Type:        "text",
			Text:        &notion.TextContent{Content: text},
			Annotations: &notion.Annotations{Color: "default"},
		},
	})
}

// completionServer answers the chat completions route with content built
// from the received user prompt.
func completionServer(t *testing.T, reply func(userPrompt string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "deepseek-chat", req.Model)
		require.Len(t, req.Messages, 2)

		resp := map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": reply(req.Messages[1].Content),
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestTranslateAppendsSpans(t *testing.T) {
	srv := completionServer(t, func(string) string {
		return "[P1] GPU供应依然紧张。\n[P2] 英伟达继续领先。"
	})
	defer srv.Close()

	blocks := []notion.Block{
		paragraph("GPU supply remains extremely tight this quarter."),
		paragraph("Nvidia continues to lead the accelerator market."),
	}

	tr := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, tr.Translate(context.Background(), blocks))

	for i, want := range []string{"GPU供应依然紧张。", "英伟达继续领先。"} {
		texts := blocks[i].Texts()
		require.Len(t, texts, 2)
		assert.Equal(t, "\n"+want, texts[1].Text.Content)
		assert.True(t, texts[1].Annotations.Italic)
		assert.Equal(t, "gray", texts[1].Annotations.Color)
	}
}

func TestTranslateSkipsUntranslatableBlocks(t *testing.T) {
	var prompts []string
	srv := completionServer(t, func(userPrompt string) string {
		prompts = append(prompts, userPrompt)
		return "[P1] 翻译好的长段落内容。"
	})
	defer srv.Close()

	blocks := []notion.Block{
		paragraph("short"),
		paragraph("这是一段已经是中文的内容，不需要再翻译一次了。"),
		paragraph("$128.50 +3.2%"),
		paragraph("A long enough English paragraph that should be translated."),
		notion.NewImageBlock("https://example.com/chart.png"),
	}

	tr := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, tr.Translate(context.Background(), blocks))

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "[P1] A long enough English paragraph")
	assert.NotContains(t, prompts[0], "[P2]")

	// Only the English paragraph gained a span.
	assert.Len(t, blocks[0].Texts(), 1)
	assert.Len(t, blocks[1].Texts(), 1)
	assert.Len(t, blocks[2].Texts(), 1)
	assert.Len(t, blocks[3].Texts(), 2)
}

func TestTranslateShortHeadingStillTranslated(t *testing.T) {
	srv := completionServer(t, func(string) string {
		return "[P1] 展望"
	})
	defer srv.Close()

	blocks := []notion.Block{
		notion.NewTextBlock(notion.BlockHeading2, []notion.RichText{
			{
				Type:        "text",
				Text:        &notion.TextContent{Content: "Outlook"},
				Annotations: &notion.Annotations{Color: "default"},
			},
		}),
	}

	tr := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, tr.Translate(context.Background(), blocks))
	require.Len(t, blocks[0].Texts(), 2)
	assert.Equal(t, "\n展望", blocks[0].Texts()[1].Text.Content)
}

func TestTranslateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	blocks := []notion.Block{paragraph("A long enough English paragraph that should be translated.")}

	tr := New("test-key", WithBaseURL(srv.URL))
	err := tr.Translate(context.Background(), blocks)
	assert.Error(t, err)
	// The block is left untouched on failure.
	assert.Len(t, blocks[0].Texts(), 1)
}

func TestTranslateFailedBatchContinues(t *testing.T) {
	// Two paragraphs large enough to land in separate batches.
	long := strings.TrimSpace(strings.Repeat("alpha ", 700))
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
			return
		}
		resp := map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "deepseek-chat",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "[P1] 第二批的翻译。",
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	blocks := []notion.Block{paragraph(long), paragraph(long)}

	tr := New("test-key", WithBaseURL(srv.URL))
	err := tr.Translate(context.Background(), blocks)
	assert.Error(t, err)

	// The second batch still ran and translated its block.
	assert.Equal(t, 2, requests)
	assert.Len(t, blocks[0].Texts(), 1)
	require.Len(t, blocks[1].Texts(), 2)
	assert.Equal(t, "\n第二批的翻译。", blocks[1].Texts()[1].Text.Content)
}

func TestTranslateMissingSegmentLeavesBlock(t *testing.T) {
	srv := completionServer(t, func(string) string {
		return "[P2] 第二段的翻译。"
	})
	defer srv.Close()

	blocks := []notion.Block{
		paragraph("First paragraph with plenty of translatable words."),
		paragraph("Second paragraph with plenty of translatable words too."),
	}

	tr := New("test-key", WithBaseURL(srv.URL))
	require.NoError(t, tr.Translate(context.Background(), blocks))
	assert.Len(t, blocks[0].Texts(), 1)
	assert.Len(t, blocks[1].Texts(), 2)
}

func TestParseMarkedResponse(t *testing.T) {
	got := parseMarkedResponse("[P1] 第一段\nextra line\n[P2]第二段 [P3] ")
	assert.Equal(t, "第一段\nextra line", got[1])
	assert.Equal(t, "第二段", got[2])
	assert.Equal(t, "", got[3])
}

func TestSplitBatches(t *testing.T) {
	long := strings.Repeat("word ", 500) // ~2500 chars per block
	blocks := []notion.Block{
		paragraph(long), paragraph(long), paragraph(long), paragraph(long),
	}
	batches := splitBatches(blocks, []int{0, 1, 2, 3})
	// 2500*3 > 6000, so at most two blocks per batch.
	require.Len(t, batches, 2)
	assert.Equal(t, batch{0, 1}, batches[0])
	assert.Equal(t, batch{2, 3}, batches[1])
}

func TestSplitBatchesBlockLimit(t *testing.T) {
	blocks := make([]notion.Block, 100)
	indexes := make([]int, 100)
	for i := range blocks {
		blocks[i] = paragraph("x")
		indexes[i] = i
	}
	batches := splitBatches(blocks, indexes)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 80)
	assert.Len(t, batches[1], 20)
}

func TestCJKRatio(t *testing.T) {
	assert.Equal(t, 0.0, cjkRatio("all english text"))
	assert.Greater(t, cjkRatio("中文内容 with english"), 0.3)
	assert.Equal(t, 0.0, cjkRatio("123 456"))
}
