// Package render converts fetched page content into the text form the
// store persists. The sync core only depends on the Renderer interface;
// richer conversions can slot in behind it.
package render

import (
	"fmt"
	"strings"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/model"
)

// Renderer turns a page and its block content into stored document text.
type Renderer interface {
	Render(page model.Page, blocks []model.Block) (string, error)
}

// Markdown renders block trees to Markdown.
type Markdown struct{}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Render converts the block list to Markdown. Unknown block types are
// skipped with a warning rather than failing the page.
func (m *Markdown) Render(page model.Page, blocks []model.Block) (string, error) {
	var sb strings.Builder
	skipped := m.renderBlocks(&sb, blocks, 0)

	if skipped > 0 {
		logging.Warn("skipped unsupported blocks",
			logging.Page(page.ID),
			logging.Count(skipped))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// renderBlocks writes blocks at the given nesting depth and returns how
// many were skipped as unsupported.
func (m *Markdown) renderBlocks(sb *strings.Builder, blocks []model.Block, depth int) int {
	skipped := 0
	listIndex := 0
	indent := strings.Repeat("  ", depth)

	for _, block := range blocks {
		// Numbered runs restart after any non-numbered sibling.
		if block.Type == model.BlockNumbered {
			listIndex++
		} else {
			listIndex = 0
		}

		switch block.Type {
		case model.BlockParagraph:
			sb.WriteString(indent + block.Text + "\n\n")
		case model.BlockHeading1:
			sb.WriteString("# " + block.Text + "\n\n")
		case model.BlockHeading2:
			sb.WriteString("## " + block.Text + "\n\n")
		case model.BlockHeading3:
			sb.WriteString("### " + block.Text + "\n\n")
		case model.BlockBulleted:
			sb.WriteString(indent + "- " + block.Text + "\n")
		case model.BlockNumbered:
			sb.WriteString(fmt.Sprintf("%s%d. %s\n", indent, listIndex, block.Text))
		case model.BlockQuote:
			sb.WriteString(indent + "> " + block.Text + "\n\n")
		case model.BlockCode:
			sb.WriteString("```" + block.Language + "\n" + block.Text + "\n```\n\n")
		case model.BlockDivider:
			sb.WriteString("---\n\n")
		case model.BlockImage:
			sb.WriteString(fmt.Sprintf("![%s](%s)\n\n", block.Text, block.URL))
		default:
			skipped++
			continue
		}

		if len(block.Children) > 0 {
			skipped += m.renderBlocks(sb, block.Children, depth+1)
		}
	}

	return skipped
}
