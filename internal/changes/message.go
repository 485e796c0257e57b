package changes

import (
	"fmt"
	"sort"
	"strings"
)

const maxScopeLen = 30

// CommitMessage derives a Conventional Commits message from a change set.
// syncedDirs are the directory names of documents synced this run (used for
// initial commits); isInitial marks a repository with no prior commits.
//
// Precedence, first match wins: initial single / initial multi / one topic /
// several topics / root-only changes / empty fallback. The root-only branch
// claims an index update even when the root change was incidental; kept as
// documented behavior.
func CommitMessage(cs ChangeSet, syncedDirs []string, isInitial bool) string {
	if isInitial {
		if len(syncedDirs) == 1 {
			return fmt.Sprintf("docs(%s): initial sync", sanitizeScope(syncedDirs[0]))
		}
		sorted := append([]string(nil), syncedDirs...)
		sort.Strings(sorted)
		return fmt.Sprintf(
			"docs: initial sync of %d topics\n\nTopics: %s",
			len(syncedDirs), strings.Join(sorted, ", "),
		)
	}

	topics := cs.Topics()
	switch {
	case len(topics) == 1:
		return fmt.Sprintf("docs(%s): %s", sanitizeScope(topics[0]), actionFor(cs, topics[0]))
	case len(topics) > 1:
		return fmt.Sprintf(
			"docs: sync updates across %d topics\n\nUpdated: %s",
			len(topics), strings.Join(topics, ", "),
		)
	case cs.HasRootChanges():
		return "docs: update documentation index"
	}
	// Degenerate: nothing classified above. Not reachable in a normal run.
	return "docs: sync latest changes"
}

// actionFor describes what happened inside one topic.
func actionFor(cs ChangeSet, topic string) string {
	var files []Change
	for _, f := range cs.Files {
		if f.Topic() == topic {
			files = append(files, f)
		}
	}

	imagesAdded := 0
	contentChanged := false
	allNew := true
	for _, f := range files {
		if f.Kind == Added && f.isImage() {
			imagesAdded++
		}
		if f.Kind != Added {
			allNew = false
		}
		name := f.Path
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if strings.EqualFold(name, "readme.md") {
			contentChanged = true
		}
	}

	if allNew && len(files) > 0 {
		if imagesAdded > 0 {
			return fmt.Sprintf("initial sync with %d images", imagesAdded)
		}
		return "initial sync"
	}

	switch {
	case imagesAdded > 0 && contentChanged:
		return fmt.Sprintf("update content and add %d %s", imagesAdded, pluralImage(imagesAdded))
	case imagesAdded > 0:
		return fmt.Sprintf("add %d %s", imagesAdded, pluralImage(imagesAdded))
	case contentChanged:
		return "update content"
	}
	return "sync latest changes"
}

func pluralImage(n int) string {
	if n > 1 {
		return "images"
	}
	return "image"
}

// sanitizeScope keeps the commit scope short and never empty; downstream
// tooling parses the docs(<scope>) prefix.
func sanitizeScope(scope string) string {
	sanitized := strings.TrimSpace(scope)
	if sanitized == "" {
		return "docs"
	}
	// Length is in characters, not bytes; slicing bytes could cut a rune
	// in half and corrupt the subject line.
	if runes := []rune(sanitized); len(runes) > maxScopeLen {
		sanitized = string(runes[:27]) + "..."
	}
	return sanitized
}
