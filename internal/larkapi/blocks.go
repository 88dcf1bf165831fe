package larkapi

// Wire shapes for the docx block-append API. Only text blocks are produced by
// the relay today.

// BlockTypeText is the docx block_type for a plain text block.
const BlockTypeText = 2

// Text colors understood by text_element_style.
const (
	TextColorBlack  = 1
	TextColorRed    = 2
	TextColorGreen  = 3
	TextColorOrange = 6
)

// Background colors understood by text_element_style.
const (
	BackgroundColorYellow = 13
	BackgroundColorBlue   = 14
	BackgroundColorOrange = 15
	BackgroundColorRed    = 16
)

// BlockTree is the payload appended as children of a document block.
type BlockTree struct {
	Index    int     `json:"index"`
	Children []Block `json:"children"`
}

// Block is a single typed node in a document content tree.
type Block struct {
	BlockType int        `json:"block_type"`
	Text      *TextBlock `json:"text,omitempty"`
}

// TextBlock carries an ordered sequence of styled text runs.
type TextBlock struct {
	Elements []TextElement  `json:"elements"`
	Style    map[string]any `json:"style,omitempty"`
}

// TextElement wraps a single text run.
type TextElement struct {
	TextRun *TextRun `json:"text_run,omitempty"`
}

// TextRun is a styled fragment of text.
type TextRun struct {
	Content string     `json:"content"`
	Style   *TextStyle `json:"text_element_style,omitempty"`
}

// TextStyle mirrors text_element_style on the wire.
type TextStyle struct {
	Bold            bool `json:"bold,omitempty"`
	TextColor       int  `json:"text_color,omitempty"`
	BackgroundColor int  `json:"background_color,omitempty"`
}

// NewTextBlock builds a text block from runs.
func NewTextBlock(runs ...TextRun) Block {
	elements := make([]TextElement, 0, len(runs))
	for i := range runs {
		run := runs[i]
		elements = append(elements, TextElement{TextRun: &run})
	}
	return Block{
		BlockType: BlockTypeText,
		Text:      &TextBlock{Elements: elements},
	}
}
