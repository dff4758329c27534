package model

// BlockType represents a supported content block kind.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading1  BlockType = "heading_1"
	BlockHeading2  BlockType = "heading_2"
	BlockHeading3  BlockType = "heading_3"
	BlockBulleted  BlockType = "bulleted_list_item"
	BlockNumbered  BlockType = "numbered_list_item"
	BlockQuote     BlockType = "quote"
	BlockCode      BlockType = "code"
	BlockDivider   BlockType = "divider"
	BlockImage     BlockType = "image"
)

// IsValid returns true if the block type is recognized.
func (t BlockType) IsValid() bool {
	switch t {
	case BlockParagraph, BlockHeading1, BlockHeading2, BlockHeading3,
		BlockBulleted, BlockNumbered, BlockQuote, BlockCode,
		BlockDivider, BlockImage:
		return true
	default:
		return false
	}
}

// Block represents one node of a page's content tree. The source client
// resolves nesting to a single level of children, which is all the
// renderer consumes.
type Block struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
	URL      string    `json:"url,omitempty"`
	Children []Block   `json:"children,omitempty"`
}
