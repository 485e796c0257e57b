// Package notion is a typed client for the Notion REST API. It handles
// pagination, recursive block expansion and binary asset downloads; rate
// limiting is applied internally so callers never see a 429.
package notion

import (
	"strings"
	"time"
)

// Block type tags as they appear on the wire.
const (
	TypeParagraph        = "paragraph"
	TypeHeading1         = "heading_1"
	TypeHeading2         = "heading_2"
	TypeHeading3         = "heading_3"
	TypeBulletedListItem = "bulleted_list_item"
	TypeNumberedListItem = "numbered_list_item"
	TypeToDo             = "to_do"
	TypeToggle           = "toggle"
	TypeCode             = "code"
	TypeQuote            = "quote"
	TypeCallout          = "callout"
	TypeDivider          = "divider"
	TypeImage            = "image"
	TypeVideo            = "video"
	TypeEmbed            = "embed"
	TypeBookmark         = "bookmark"
	TypeLinkPreview      = "link_preview"
	TypeTable            = "table"
	TypeTableRow         = "table_row"
	TypeColumnList       = "column_list"
	TypeColumn           = "column"
	TypeChildPage        = "child_page"
	TypeChildDatabase    = "child_database"
	TypeSyncedBlock      = "synced_block"
	TypeTemplate         = "template"
	TypeEquation         = "equation"
	TypeBreadcrumb       = "breadcrumb"
	TypeTableOfContents  = "table_of_contents"
	TypeFile             = "file"
	TypePDF              = "pdf"
	TypeAudio            = "audio"
)

// Page is a Notion page with the metadata the sync needs.
type Page struct {
	ID             string
	Title          string
	LastEditedTime time.Time
	CreatedTime    time.Time
	URL            string
	Icon           string
	Cover          string
}

// Block is one node of a page's block tree. Content holds the type-specific
// payload as it came off the wire; Children is populated by recursive
// expansion before the block reaches the renderer.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Content     map[string]any
	Children    []Block
}

func pageFromAPI(page map[string]any) Page {
	title := ""
	if props, ok := page["properties"].(map[string]any); ok {
		if titleProp, ok := props["title"].(map[string]any); ok {
			if items, ok := titleProp["title"].([]any); ok && len(items) > 0 {
				if first, ok := items[0].(map[string]any); ok {
					title, _ = first["plain_text"].(string)
				}
			}
		}
	}
	// Fallback for pages discovered through child_page blocks.
	if title == "" {
		if child, ok := page["child_page"].(map[string]any); ok {
			title, _ = child["title"].(string)
		}
	}

	icon := ""
	if iconData, ok := page["icon"].(map[string]any); ok {
		switch iconData["type"] {
		case "emoji":
			icon, _ = iconData["emoji"].(string)
		case "external":
			if ext, ok := iconData["external"].(map[string]any); ok {
				icon, _ = ext["url"].(string)
			}
		}
	}

	cover := ""
	if coverData, ok := page["cover"].(map[string]any); ok {
		switch coverData["type"] {
		case "external":
			if ext, ok := coverData["external"].(map[string]any); ok {
				cover, _ = ext["url"].(string)
			}
		case "file":
			if f, ok := coverData["file"].(map[string]any); ok {
				cover, _ = f["url"].(string)
			}
		}
	}

	id, _ := page["id"].(string)
	url, _ := page["url"].(string)
	return Page{
		ID:             strings.ReplaceAll(id, "-", ""),
		Title:          title,
		LastEditedTime: parseTime(page["last_edited_time"]),
		CreatedTime:    parseTime(page["created_time"]),
		URL:            url,
		Icon:           icon,
		Cover:          cover,
	}
}

func blockFromAPI(raw map[string]any) Block {
	id, _ := raw["id"].(string)
	blockType, _ := raw["type"].(string)
	content, _ := raw[blockType].(map[string]any)
	hasChildren, _ := raw["has_children"].(bool)
	return Block{
		ID:          strings.ReplaceAll(id, "-", ""),
		Type:        blockType,
		HasChildren: hasChildren,
		Content:     content,
	}
}

func parseTime(v any) time.Time {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatPageID normalizes a page ID to the dashed UUID form the API expects.
// IDs are stored without dashes; the API accepts either but is picky about
// partial dashing.
func FormatPageID(pageID string) string {
	clean := strings.ReplaceAll(pageID, "-", "")
	if len(clean) != 32 {
		return pageID
	}
	return clean[:8] + "-" + clean[8:12] + "-" + clean[12:16] + "-" + clean[16:20] + "-" + clean[20:]
}
