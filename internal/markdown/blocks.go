package markdown

import (
	"fmt"
	"path/filepath"
	"strings"

	"notionsync/internal/notion"
)

func (c *Converter) renderParagraph(rc *renderContext, b notion.Block) string {
	text := renderRichText(getList(b.Content, "rich_text"))
	if len(b.Children) > 0 {
		return text + "\n" + c.renderChildren(rc, b.Children, true)
	}
	return text
}

func (c *Converter) renderListItem(rc *renderContext, b notion.Block, marker string) string {
	result := marker + renderRichText(getList(b.Content, "rich_text"))
	if len(b.Children) > 0 {
		result += "\n" + c.renderChildren(rc, b.Children, true)
	}
	return result
}

func (c *Converter) renderNumberedItem(rc *renderContext, b notion.Block) string {
	rc.numbered++
	return c.renderListItem(rc, b, fmt.Sprintf("%d. ", rc.numbered))
}

func (c *Converter) renderToDo(rc *renderContext, b notion.Block) string {
	checkbox := "[ ]"
	if getBool(b.Content, "checked") {
		checkbox = "[x]"
	}
	return c.renderListItem(rc, b, "- "+checkbox+" ")
}

func (c *Converter) renderToggle(rc *renderContext, b notion.Block) string {
	text := renderRichText(getList(b.Content, "rich_text"))
	result := "<details>\n<summary>" + text + "</summary>\n"
	if len(b.Children) > 0 {
		result += "\n" + c.renderChildren(rc, b.Children, false) + "\n"
	}
	return result + "</details>"
}

// codeLanguages maps Notion's free-text language labels to markdown fence
// tags. Unlisted labels pass through unchanged.
var codeLanguages = map[string]string{
	"plain text": "",
	"javascript": "javascript",
	"typescript": "typescript",
	"python":     "python",
	"java":       "java",
	"c++":        "cpp",
	"c#":         "csharp",
	"ruby":       "ruby",
	"go":         "go",
	"rust":       "rust",
	"shell":      "bash",
	"bash":       "bash",
	"sql":        "sql",
	"json":       "json",
	"yaml":       "yaml",
	"xml":        "xml",
	"html":       "html",
	"css":        "css",
	"markdown":   "markdown",
	"dockerfile": "dockerfile",
}

func renderCode(b notion.Block) string {
	code := renderRichText(getList(b.Content, "rich_text"))
	language := strings.ToLower(getString(b.Content, "language"))
	lang, ok := codeLanguages[language]
	if !ok {
		lang = language
	}

	result := "```" + lang + "\n" + code + "\n```"
	if caption := renderRichText(getList(b.Content, "caption")); caption != "" {
		result += "\n*" + caption + "*"
	}
	return result
}

// blockquote prefixes every line with the quote marker.
func blockquote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func (c *Converter) renderQuote(rc *renderContext, b notion.Block) string {
	quoted := blockquote(renderRichText(getList(b.Content, "rich_text")))
	if len(b.Children) > 0 {
		children := c.renderChildren(rc, b.Children, false)
		quoted += "\n" + blockquote(children)
	}
	return quoted
}

func (c *Converter) renderCallout(rc *renderContext, b notion.Block) string {
	text := renderRichText(getList(b.Content, "rich_text"))

	icon := ""
	if iconData := getMap(b.Content, "icon"); getString(iconData, "type") == "emoji" {
		icon = getString(iconData, "emoji")
	}
	prefix := "> "
	if icon != "" {
		prefix = "> " + icon + " "
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = prefix + line
		} else {
			lines[i] = "> " + line
		}
	}
	result := strings.Join(lines, "\n")

	if len(b.Children) > 0 {
		children := c.renderChildren(rc, b.Children, false)
		result += "\n" + blockquote(children)
	}
	return result
}

func (c *Converter) renderImage(rc *renderContext, b notion.Block) string {
	url := fileURL(b.Content)
	if url == "" {
		return "<!-- Image URL not found -->"
	}

	ref := url
	if local, err := c.assets.Resolve(rc.ctx, url, rc.assetDir, ""); err == nil {
		rc.downloaded = append(rc.downloaded, local)
		ref = rc.relPrefix + "/" + filepath.Base(local)
	} else {
		// Keep the original URL rather than failing the render.
		c.log.Warn("asset download failed, embedding URL", "url", url, "error", err)
	}

	caption := renderRichText(getList(b.Content, "caption"))
	alt := caption
	if alt == "" {
		alt = "Image"
	}

	result := "![" + alt + "](" + ref + ")"
	if caption != "" {
		result += "\n*" + caption + "*"
	}
	return result
}

func renderVideo(b notion.Block) string {
	url := fileURL(b.Content)
	if url == "" {
		return "<!-- Video URL not found -->"
	}

	var result string
	if strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be") {
		result = "[![Video](" + url + ")](" + url + ")"
	} else {
		result = "[Video](" + url + ")"
	}
	if caption := renderRichText(getList(b.Content, "caption")); caption != "" {
		result += "\n*" + caption + "*"
	}
	return result
}

func renderEmbed(b notion.Block) string {
	result := "[Embedded content](" + getString(b.Content, "url") + ")"
	if caption := renderRichText(getList(b.Content, "caption")); caption != "" {
		result += "\n*" + caption + "*"
	}
	return result
}

func renderBookmark(b notion.Block) string {
	url := getString(b.Content, "url")
	title := renderRichText(getList(b.Content, "caption"))
	if title == "" {
		title = url
	}
	return "🔗 [" + title + "](" + url + ")"
}

func renderTable(b notion.Block) string {
	if len(b.Children) == 0 {
		return "<!-- Empty table -->"
	}

	hasHeader := getBool(b.Content, "has_column_header")
	var rows []string
	for i, row := range b.Children {
		if row.Type != notion.TypeTableRow {
			continue
		}
		cells := getList(row.Content, "cells")
		rendered := make([]string, 0, len(cells))
		for _, cell := range cells {
			richText, _ := cell.([]any)
			rendered = append(rendered, renderRichText(richText))
		}
		rows = append(rows, "| "+strings.Join(rendered, " | ")+" |")

		if i == 0 && hasHeader {
			separators := make([]string, len(cells))
			for j := range separators {
				separators[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(separators, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

// renderColumnList flattens columns into sequential content separated by
// blank lines; column layout has no markdown equivalent.
func (c *Converter) renderColumnList(rc *renderContext, b notion.Block) string {
	if len(b.Children) == 0 {
		return ""
	}
	var parts []string
	for _, column := range b.Children {
		if len(column.Children) == 0 {
			continue
		}
		parts = append(parts, c.renderChildren(rc, column.Children, false))
	}
	return strings.Join(parts, "\n\n")
}

func renderFile(b notion.Block) string {
	url := fileURL(b.Content)
	name := "File"
	if getString(b.Content, "type") == "file" {
		name = getStringDefault(b.Content, "name", "File")
	}
	if url == "" {
		return "<!-- File not found -->"
	}
	return "📎 [" + name + "](" + url + ")"
}

func renderPDF(b notion.Block) string {
	url := fileURL(b.Content)
	if url == "" {
		return "<!-- PDF not found -->"
	}
	result := "📄 [PDF Document](" + url + ")"
	if caption := renderRichText(getList(b.Content, "caption")); caption != "" {
		result += "\n*" + caption + "*"
	}
	return result
}

func renderAudio(b notion.Block) string {
	url := fileURL(b.Content)
	if url == "" {
		return "<!-- Audio not found -->"
	}
	return "🎵 [Audio](" + url + ")"
}
