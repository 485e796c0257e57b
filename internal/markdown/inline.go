package markdown

// renderRichText concatenates a rich text array into one markdown string.
// Annotations apply in a fixed order (code, bold, italic, strikethrough,
// underline, then link) so bold-italic nesting stays deterministic.
func renderRichText(items []any) string {
	if len(items) == 0 {
		return ""
	}

	var out string
	for _, item := range items {
		span, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := getString(span, "plain_text")
		annotations := getMap(span, "annotations")

		if getBool(annotations, "code") {
			text = "`" + text + "`"
		}
		if getBool(annotations, "bold") {
			text = "**" + text + "**"
		}
		if getBool(annotations, "italic") {
			text = "*" + text + "*"
		}
		if getBool(annotations, "strikethrough") {
			text = "~~" + text + "~~"
		}
		if getBool(annotations, "underline") {
			// Markdown has no underline; fall back to HTML.
			text = "<u>" + text + "</u>"
		}
		if href := getString(span, "href"); href != "" {
			text = "[" + text + "](" + href + ")"
		}
		out += text
	}
	return out
}

// Payload accessors. Block payloads come off the wire as map[string]any;
// every accessor tolerates nil maps and missing or mistyped keys.

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getStringDefault(m map[string]any, key, fallback string) string {
	if s := getString(m, key); s != "" {
		return s
	}
	return fallback
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getList(m map[string]any, key string) []any {
	list, _ := m[key].([]any)
	return list
}

func getMap(m map[string]any, key string) map[string]any {
	child, _ := m[key].(map[string]any)
	return child
}

// fileURL extracts the URL from an external-or-hosted file payload.
func fileURL(content map[string]any) string {
	switch getString(content, "type") {
	case "external":
		return getString(getMap(content, "external"), "url")
	case "file":
		return getString(getMap(content, "file"), "url")
	}
	return ""
}
