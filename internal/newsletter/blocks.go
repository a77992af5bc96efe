package newsletter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/teemow/inboxsync/internal/notion"
)

// maxRichTextLen caps the content of a single rich text span, per the
// destination API limit.
const maxRichTextLen = 2000

// trackingImageMarkers identify pixel/spacer images that must not become
// content blocks.
var trackingImageMarkers = []string{"tracking", "pixel", "1x1", "spacer", "blank"}

// footerMarkers identify boilerplate paragraphs stripped from newsletter
// bodies.
var footerMarkers = []string{"unsubscribe", "forwarded this email"}

// BlocksFromHTML converts a newsletter HTML body into destination
// content blocks: headings, paragraphs, quotes, list items, and external
// images. Style/script/preview/footer markup and tracking images are
// dropped, and near-duplicate text blocks are removed.
func BlocksFromHTML(htmlContent string) []notion.Block {
	if strings.TrimSpace(htmlContent) == "" {
		return nil
	}

	// Quoted-printable soft line breaks survive in some bodies.
	htmlContent = softBreak.ReplaceAllString(htmlContent, "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	doc.Find("style, script, div.preview").Remove()
	doc.Find(`div[class*="footer"]`).Remove()

	var blocks []notion.Block
	doc.Find("h1, h2, h3, h4, h5, h6, blockquote, ul, ol, p, img").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		tag := node.Data

		// Elements inside a container that is converted as a whole are
		// handled by that container.
		if tag != "img" && s.ParentsFiltered("blockquote, ul, ol").Length() > 0 {
			return
		}

		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if texts := parseRichText(node); len(texts) > 0 {
				blocks = append(blocks, notion.NewTextBlock(headingType(tag), texts))
			}
		case "blockquote":
			if texts := parseRichText(node); len(texts) > 0 {
				blocks = append(blocks, notion.NewTextBlock(notion.BlockQuote, texts))
			}
		case "ul":
			blocks = append(blocks, listItems(s, notion.BlockBulletedItem)...)
		case "ol":
			blocks = append(blocks, listItems(s, notion.BlockNumberedItem)...)
		case "p":
			texts := parseRichText(node)
			if len(texts) == 0 {
				return
			}
			if isFooterText(plainText(texts)) {
				return
			}
			blocks = append(blocks, notion.NewTextBlock(notion.BlockParagraph, texts))
		case "img":
			if b, ok := imageBlock(s); ok {
				blocks = append(blocks, b)
			}
		}
	})

	return dedupeBlocks(blocks)
}

// BlocksFromText renders a plain text body as paragraph blocks when a
// message carries no usable HTML. Paragraphs longer than the per-span
// cap are split across multiple spans.
func BlocksFromText(text string) []notion.Block {
	var blocks []notion.Block
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(cleanText(para))
		if para == "" {
			continue
		}

		var spans []notion.RichText
		runes := []rune(para)
		for len(runes) > 0 {
			n := len(runes)
			if n > maxRichTextLen {
				n = maxRichTextLen
			}
			spans = append(spans, notion.Text(string(runes[:n])))
			runes = runes[n:]
		}
		blocks = append(blocks, notion.NewTextBlock(notion.BlockParagraph, spans))
	}
	return blocks
}

// headingType maps an h1-h6 tag to a destination heading type; levels
// beyond three collapse to heading_3.
func headingType(tag string) string {
	switch tag {
	case "h1":
		return notion.BlockHeading1
	case "h2":
		return notion.BlockHeading2
	}
	return notion.BlockHeading3
}

// listItems converts the items of a list element.
func listItems(s *goquery.Selection, blockType string) []notion.Block {
	var blocks []notion.Block
	s.Find("li").Each(func(_ int, li *goquery.Selection) {
		if texts := parseRichText(li.Get(0)); len(texts) > 0 {
			blocks = append(blocks, notion.NewTextBlock(blockType, texts))
		}
	})
	return blocks
}

// imageBlock builds an external image block from an img element, or
// reports false for tracking pixels and unusable sources.
func imageBlock(s *goquery.Selection) (notion.Block, bool) {
	src, ok := s.Attr("src")
	if !ok {
		return notion.Block{}, false
	}
	src = cleanText(src)
	if !strings.HasPrefix(src, "http") {
		return notion.Block{}, false
	}
	lower := strings.ToLower(src)
	for _, marker := range trackingImageMarkers {
		if strings.Contains(lower, marker) {
			return notion.Block{}, false
		}
	}
	return notion.NewImageBlock(ConvertImageURL(src)), true
}

func isFooterText(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range footerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// spanState tracks inline annotations while walking element children.
type spanState struct {
	bold      bool
	italic    bool
	underline bool
	code      bool
	link      string
}

// parseRichText flattens the inline content of an element into annotated
// rich text spans.
func parseRichText(n *html.Node) []notion.RichText {
	var spans []notion.RichText

	var walk func(n *html.Node, st spanState)
	walk = func(n *html.Node, st spanState) {
		switch n.Type {
		case html.TextNode:
			if text := cleanText(n.Data); text != "" {
				spans = append(spans, makeSpan(text, st))
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "br":
				spans = append(spans, makeSpan("\n", st))
				return
			case "ul", "ol":
				// Nested lists become their own blocks.
				return
			case "strong", "b":
				st.bold = true
			case "em", "i":
				st.italic = true
			case "u":
				st.underline = true
			case "code":
				st.code = true
			case "a":
				st.link = ""
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						st.link = ValidateURL(attr.Val)
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, st)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, spanState{})
	}

	return finishSpans(spans)
}

func makeSpan(content string, st spanState) notion.RichText {
	rt := notion.RichText{
		Type: "text",
		Text: &notion.TextContent{Content: content},
		Annotations: &notion.Annotations{
			Bold:      st.bold,
			Italic:    st.italic,
			Underline: st.underline,
			Code:      st.code,
			Color:     "default",
		},
	}
	if st.link != "" {
		rt.Text.Link = &notion.Link{URL: st.link}
	}
	return rt
}

// finishSpans merges adjacent same-style spans, drops whitespace-only
// spans, and enforces the per-span length cap.
func finishSpans(spans []notion.RichText) []notion.RichText {
	var merged []notion.RichText
	for _, span := range spans {
		if len(merged) > 0 && sameStyle(&merged[len(merged)-1], &span) {
			merged[len(merged)-1].Text.Content += span.Text.Content
			continue
		}
		merged = append(merged, span)
	}

	var out []notion.RichText
	for _, span := range merged {
		if strings.TrimSpace(span.Text.Content) == "" {
			continue
		}
		if len(span.Text.Content) > maxRichTextLen {
			span.Text.Content = truncateRunes(span.Text.Content, maxRichTextLen)
		}
		out = append(out, span)
	}
	return out
}

func sameStyle(a, b *notion.RichText) bool {
	if *a.Annotations != *b.Annotations {
		return false
	}
	aLink, bLink := "", ""
	if a.Text.Link != nil {
		aLink = a.Text.Link.URL
	}
	if b.Text.Link != nil {
		bLink = b.Text.Link.URL
	}
	return aLink == bLink
}

func plainText(spans []notion.RichText) string {
	var b strings.Builder
	for _, rt := range spans {
		if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// dedupeBlocks removes text blocks whose type and leading content repeat
// an earlier block; newsletters often duplicate headlines between the
// preview and body sections.
func dedupeBlocks(blocks []notion.Block) []notion.Block {
	seen := make(map[string]struct{})
	var out []notion.Block

	for _, b := range blocks {
		switch b.Type {
		case notion.BlockParagraph, notion.BlockHeading1, notion.BlockHeading2, notion.BlockHeading3, notion.BlockQuote:
			content := strings.ToLower(strings.TrimSpace(truncateRunes(b.PlainText(), 100)))
			fingerprint := b.Type + ":" + content
			if content == "" {
				out = append(out, b)
				continue
			}
			if _, dup := seen[fingerprint]; dup {
				continue
			}
			seen[fingerprint] = struct{}{}
		}
		out = append(out, b)
	}
	return out
}

// SanitizeBlocks drops image blocks with non-HTTP URLs and removes
// invalid links from rich text spans; enrichment can reintroduce spans
// after the initial parse, so this runs last before the write.
func SanitizeBlocks(blocks []notion.Block) []notion.Block {
	var out []notion.Block

	for _, b := range blocks {
		if b.Type == notion.BlockImage {
			url := b.Image.External.URL
			if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
				out = append(out, b)
			}
			continue
		}

		texts := b.Texts()
		if texts == nil {
			out = append(out, b)
			continue
		}
		cleaned := make([]notion.RichText, 0, len(texts))
		for _, rt := range texts {
			if rt.Text != nil && rt.Text.Link != nil {
				if fixed := ValidateURL(rt.Text.Link.URL); fixed != "" {
					rt.Text.Link = &notion.Link{URL: fixed}
				} else {
					rt.Text.Link = nil
				}
			}
			cleaned = append(cleaned, rt)
		}
		if len(cleaned) == 0 {
			continue
		}
		b.SetTexts(cleaned)
		out = append(out, b)
	}

	return out
}
