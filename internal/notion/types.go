package notion

// Property names in the destination databases. The schema contract
// requires exact matches, including the Chinese field names.
const (
	PropName      = "Name"
	PropDate      = "Date"
	PropSender    = "发件人"
	PropType      = "类型"
	PropURL       = "URL"
	PropCompanies = "提及公司"
	PropStatus    = "状态"

	// StatusPending is the fixed triage value written on creation in the
	// primary database only.
	StatusPending = "待处理"
)

// Block type identifiers used by this job.
const (
	BlockParagraph    = "paragraph"
	BlockHeading1     = "heading_1"
	BlockHeading2     = "heading_2"
	BlockHeading3     = "heading_3"
	BlockQuote        = "quote"
	BlockBulletedItem = "bulleted_list_item"
	BlockNumberedItem = "numbered_list_item"
	BlockImage        = "image"
)

// RichText is a single annotated text span.
type RichText struct {
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// TextContent is the content of a text-typed rich text span.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink attached to a rich text span.
type Link struct {
	URL string `json:"url"`
}

// Annotations carries rich text styling.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// Text builds a plain rich text span.
func Text(content string) RichText {
	return RichText{
		Type:        "text",
		Text:        &TextContent{Content: content},
		Annotations: &Annotations{Color: "default"},
	}
}

// RichTextValue is the payload shared by all text-carrying block types.
type RichTextValue struct {
	RichText []RichText `json:"rich_text"`
}

// ImageValue is the payload of an external image block.
type ImageValue struct {
	Type     string        `json:"type"`
	External ExternalImage `json:"external"`
}

// ExternalImage references an image by URL.
type ExternalImage struct {
	URL string `json:"url"`
}

// Block is a Notion content block. Exactly one of the typed payload
// fields is set, matching Type.
type Block struct {
	Object       string         `json:"object"`
	Type         string         `json:"type"`
	Paragraph    *RichTextValue `json:"paragraph,omitempty"`
	Heading1     *RichTextValue `json:"heading_1,omitempty"`
	Heading2     *RichTextValue `json:"heading_2,omitempty"`
	Heading3     *RichTextValue `json:"heading_3,omitempty"`
	Quote        *RichTextValue `json:"quote,omitempty"`
	BulletedItem *RichTextValue `json:"bulleted_list_item,omitempty"`
	NumberedItem *RichTextValue `json:"numbered_list_item,omitempty"`
	Image        *ImageValue    `json:"image,omitempty"`
}

// NewTextBlock builds a block of the given text-carrying type.
func NewTextBlock(blockType string, texts []RichText) Block {
	b := Block{Object: "block", Type: blockType}
	b.setValue(&RichTextValue{RichText: texts})
	return b
}

// NewImageBlock builds an external image block.
func NewImageBlock(url string) Block {
	return Block{
		Object: "block",
		Type:   BlockImage,
		Image:  &ImageValue{Type: "external", External: ExternalImage{URL: url}},
	}
}

func (b *Block) setValue(v *RichTextValue) {
	switch b.Type {
	case BlockParagraph:
		b.Paragraph = v
	case BlockHeading1:
		b.Heading1 = v
	case BlockHeading2:
		b.Heading2 = v
	case BlockHeading3:
		b.Heading3 = v
	case BlockQuote:
		b.Quote = v
	case BlockBulletedItem:
		b.BulletedItem = v
	case BlockNumberedItem:
		b.NumberedItem = v
	}
}

// Value returns the rich text payload of a text-carrying block, or nil
// for image and unknown blocks.
func (b *Block) Value() *RichTextValue {
	switch b.Type {
	case BlockParagraph:
		return b.Paragraph
	case BlockHeading1:
		return b.Heading1
	case BlockHeading2:
		return b.Heading2
	case BlockHeading3:
		return b.Heading3
	case BlockQuote:
		return b.Quote
	case BlockBulletedItem:
		return b.BulletedItem
	case BlockNumberedItem:
		return b.NumberedItem
	}
	return nil
}

// Texts returns the rich text spans of a text-carrying block.
func (b *Block) Texts() []RichText {
	if v := b.Value(); v != nil {
		return v.RichText
	}
	return nil
}

// SetTexts replaces the rich text spans of a text-carrying block.
func (b *Block) SetTexts(texts []RichText) {
	if v := b.Value(); v != nil {
		v.RichText = texts
	}
}

// PlainText concatenates the text content of all spans in the block.
func (b *Block) PlainText() string {
	var s string
	for _, rt := range b.Texts() {
		if rt.Text != nil {
			s += rt.Text.Content
		}
	}
	return s
}

// IsHeading reports whether the block is one of the heading types.
func (b *Block) IsHeading() bool {
	switch b.Type {
	case BlockHeading1, BlockHeading2, BlockHeading3:
		return true
	}
	return false
}

// Property is a page property value. Exactly one field is set depending
// on the destination column type; the same shape decodes query results.
type Property struct {
	Title       []RichText     `json:"title,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	URL         string         `json:"url,omitempty"`
}

// Properties maps property names to values.
type Properties map[string]Property

// DateValue is a Notion date property payload.
type DateValue struct {
	Start string `json:"start"`
}

// SelectOption is a select or multi-select option by name.
type SelectOption struct {
	Name string `json:"name"`
}

// TitleProperty builds a title property.
func TitleProperty(content string) Property {
	return Property{Title: []RichText{Text(content)}}
}

// DateProperty builds a date property.
func DateProperty(start string) Property {
	return Property{Date: &DateValue{Start: start}}
}

// SelectProperty builds a single-select property.
func SelectProperty(name string) Property {
	return Property{Select: &SelectOption{Name: name}}
}

// MultiSelectProperty builds a multi-select property.
func MultiSelectProperty(names []string) Property {
	opts := make([]SelectOption, 0, len(names))
	for _, n := range names {
		opts = append(opts, SelectOption{Name: n})
	}
	return Property{MultiSelect: opts}
}

// URLProperty builds a url property.
func URLProperty(url string) Property {
	return Property{URL: url}
}

// Page is a created or queried database page.
type Page struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// TitleText returns the concatenated title content of the named property.
func (p *Page) TitleText(name string) string {
	var s string
	for _, rt := range p.Properties[name].Title {
		if rt.Text != nil {
			s += rt.Text.Content
		}
	}
	return s
}

// SelectName returns the selected option name of the named property.
func (p *Page) SelectName(name string) string {
	if sel := p.Properties[name].Select; sel != nil {
		return sel.Name
	}
	return ""
}

// DateStart returns the start date of the named property.
func (p *Page) DateStart(name string) string {
	if d := p.Properties[name].Date; d != nil {
		return d.Start
	}
	return ""
}
