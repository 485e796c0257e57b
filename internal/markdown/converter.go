// Package markdown renders Notion block trees to markdown text.
//
// The conversion is deterministic: the same block tree and the same asset
// resolution outcomes always produce byte-identical output. Malformed or
// missing payload fields never fail a render; every accessor has a safe
// default and unknown block types degrade to a visible comment so sibling
// structure is preserved.
package markdown

import (
	"context"
	"log/slog"
	"strings"

	"notionsync/internal/notion"
)

// Converter renders block trees. One Converter serves any number of
// Convert calls; per-call state lives in a renderContext.
type Converter struct {
	assets *AssetResolver
	log    *slog.Logger
}

// NewConverter returns a Converter that resolves assets through fetch.
func NewConverter(fetch Fetcher, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		assets: NewAssetResolver(fetch, logger),
		log:    logger,
	}
}

// renderContext is the mutable state threaded through one Convert call.
type renderContext struct {
	ctx       context.Context
	assetDir  string
	relPrefix string

	// downloaded collects resolved asset paths in render order.
	downloaded []string

	// indent is the current nesting depth. Containers that render their
	// children unindented (quote, toggle, column_list, synced_block) do not
	// touch it.
	indent int

	// numbered is the running numbered-list counter. It is reset in the
	// top-level loop whenever the current block is not a numbered item.
	numbered int
}

// Convert renders a sequence of top-level blocks. assetDir is where
// referenced assets are written; relPrefix is the path prefix used for
// asset references in the emitted text. It returns the rendered document
// and the local paths of all downloaded assets.
func (c *Converter) Convert(ctx context.Context, blocks []notion.Block, assetDir, relPrefix string) (string, []string) {
	rc := &renderContext{
		ctx:       ctx,
		assetDir:  assetDir,
		relPrefix: relPrefix,
	}

	var lines []string
	prevType := ""
	for _, block := range blocks {
		if prevType != "" && needsSpacing(prevType, block.Type) {
			lines = append(lines, "")
		}
		if block.Type != notion.TypeNumberedListItem {
			rc.numbered = 0
		}
		lines = append(lines, c.renderBlock(rc, block))
		prevType = block.Type
	}

	return normalize(strings.Join(lines, "\n")), rc.downloaded
}

// renderBlock maps one block to its text fragment. Total over all inputs:
// unrecognized types yield a marker comment, never an error.
func (c *Converter) renderBlock(rc *renderContext, b notion.Block) string {
	switch b.Type {
	case notion.TypeParagraph:
		return c.renderParagraph(rc, b)
	case notion.TypeHeading1:
		return "# " + renderRichText(getList(b.Content, "rich_text"))
	case notion.TypeHeading2:
		return "## " + renderRichText(getList(b.Content, "rich_text"))
	case notion.TypeHeading3:
		return "### " + renderRichText(getList(b.Content, "rich_text"))
	case notion.TypeBulletedListItem:
		return c.renderListItem(rc, b, "- ")
	case notion.TypeNumberedListItem:
		return c.renderNumberedItem(rc, b)
	case notion.TypeToDo:
		return c.renderToDo(rc, b)
	case notion.TypeToggle:
		return c.renderToggle(rc, b)
	case notion.TypeCode:
		return renderCode(b)
	case notion.TypeQuote:
		return c.renderQuote(rc, b)
	case notion.TypeCallout:
		return c.renderCallout(rc, b)
	case notion.TypeDivider:
		return "---"
	case notion.TypeImage:
		return c.renderImage(rc, b)
	case notion.TypeVideo:
		return renderVideo(b)
	case notion.TypeEmbed:
		return renderEmbed(b)
	case notion.TypeBookmark:
		return renderBookmark(b)
	case notion.TypeLinkPreview:
		url := getString(b.Content, "url")
		return "[" + url + "](" + url + ")"
	case notion.TypeTable:
		return renderTable(b)
	case notion.TypeTableRow, notion.TypeColumn:
		// Consumed by the table / column_list parent.
		return ""
	case notion.TypeColumnList:
		return c.renderColumnList(rc, b)
	case notion.TypeChildPage:
		return "📄 **" + getStringDefault(b.Content, "title", "Untitled") + "** (subpage)"
	case notion.TypeChildDatabase:
		return "🗃️ **" + getStringDefault(b.Content, "title", "Untitled Database") + "** (database)"
	case notion.TypeSyncedBlock:
		if len(b.Children) > 0 {
			return c.renderChildren(rc, b.Children, false)
		}
		return ""
	case notion.TypeTemplate:
		return "📋 Template: " + renderRichText(getList(b.Content, "rich_text"))
	case notion.TypeEquation:
		return "$$\n" + getString(b.Content, "expression") + "\n$$"
	case notion.TypeBreadcrumb:
		// Not meaningful outside the live page.
		return ""
	case notion.TypeTableOfContents:
		return "<!-- Table of Contents (auto-generated in Notion) -->"
	case notion.TypeFile:
		return renderFile(b)
	case notion.TypePDF:
		return renderPDF(b)
	case notion.TypeAudio:
		return renderAudio(b)
	default:
		return "<!-- Unsupported block type: " + b.Type + " -->"
	}
}

// renderChildren renders nested blocks. With indent set, each child's lines
// are prefixed by two spaces per depth level; otherwise children render at
// the current depth (quote, toggle, column and synced containers).
func (c *Converter) renderChildren(rc *renderContext, blocks []notion.Block, indent bool) string {
	if len(blocks) == 0 {
		return ""
	}
	if indent {
		rc.indent++
		defer func() { rc.indent-- }()
	}

	var lines []string
	for _, block := range blocks {
		text := c.renderBlock(rc, block)
		if indent {
			text = indentText(text, rc.indent)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

var listItemTypes = map[string]bool{
	notion.TypeBulletedListItem: true,
	notion.TypeNumberedListItem: true,
	notion.TypeToDo:             true,
}

// needsSpacing decides whether a blank separator line goes between two
// adjacent top-level blocks. This rule governs the visual structure of the
// output and must hold exactly.
func needsSpacing(prevType, currType string) bool {
	if strings.HasPrefix(currType, "heading_") || strings.HasPrefix(prevType, "heading_") {
		return true
	}
	if listItemTypes[prevType] != listItemTypes[currType] {
		return true
	}
	if prevType == notion.TypeCode || currType == notion.TypeCode {
		return true
	}
	if prevType == notion.TypeDivider || currType == notion.TypeDivider {
		return true
	}
	return false
}

func indentText(text string, level int) string {
	indent := strings.Repeat("  ", level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// normalize strips trailing whitespace per line, collapses runs of more
// than two blank lines, and guarantees exactly one trailing newline.
func normalize(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blanks++
			if blanks <= 2 {
				result = append(result, line)
			}
			continue
		}
		blanks = 0
		result = append(result, line)
	}
	return strings.TrimSpace(strings.Join(result, "\n")) + "\n"
}
