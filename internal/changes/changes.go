// Package changes classifies version-control status output into typed file
// changes and derives commit messages from them.
package changes

import (
	"sort"
	"strings"
)

// Kind is the classification of one file change.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Renamed  Kind = "renamed"
)

// Change is one filesystem delta reported by the backing store.
type Change struct {
	Path    string
	Kind    Kind
	OldPath string // renames only
}

// Topic is the first path segment of the change, used as commit scope.
// Root-level files and paths under dot-directories (internal state) carry
// no topic.
func (c Change) Topic() string {
	parts := strings.Split(c.Path, "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	if strings.HasPrefix(parts[0], ".") {
		return ""
	}
	if len(parts) < 2 {
		// A topic is a directory; a single segment is a root-level file.
		return ""
	}
	return parts[0]
}

// IsRootFile reports whether the change touches a file at the repository
// root (dot-files excluded).
func (c Change) IsRootFile() bool {
	parts := strings.Split(c.Path, "/")
	return len(parts) == 1 && !strings.HasPrefix(parts[0], ".")
}

func (c Change) isImage() bool {
	idx := strings.LastIndex(c.Path, ".")
	if idx < 0 {
		return false
	}
	return imageExtensions[strings.ToLower(c.Path[idx:])]
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// ChangeSet is the ordered collection of changes from one detection pass.
// All aggregates are recomputed on demand; nothing is cached.
type ChangeSet struct {
	Files []Change
}

// Topics returns the distinct non-empty topics, sorted.
func (cs ChangeSet) Topics() []string {
	seen := map[string]bool{}
	for _, f := range cs.Files {
		if topic := f.Topic(); topic != "" {
			seen[topic] = true
		}
	}
	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// HasChanges reports whether anything changed at all.
func (cs ChangeSet) HasChanges() bool { return len(cs.Files) > 0 }

// HasRootChanges reports whether any root-level file changed.
func (cs ChangeSet) HasRootChanges() bool {
	for _, f := range cs.Files {
		if f.IsRootFile() {
			return true
		}
	}
	return false
}

func (cs ChangeSet) count(kind Kind) int {
	n := 0
	for _, f := range cs.Files {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// AddedCount counts added files.
func (cs ChangeSet) AddedCount() int { return cs.count(Added) }

// ModifiedCount counts modified files.
func (cs ChangeSet) ModifiedCount() int { return cs.count(Modified) }

// DeletedCount counts deleted files.
func (cs ChangeSet) DeletedCount() int { return cs.count(Deleted) }

// ImagesAdded counts added files with an image extension.
func (cs ChangeSet) ImagesAdded() int {
	n := 0
	for _, f := range cs.Files {
		if f.Kind == Added && f.isImage() {
			n++
		}
	}
	return n
}

// Classify parses porcelain v1 status lines ("XY PATH", renames as
// "XY OLD -> NEW") into a ChangeSet. Classification depends only on the two
// status characters and the path text. Malformed lines are skipped.
func Classify(lines []string) ChangeSet {
	var cs ChangeSet
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}

		status := line[:2]
		var pathText string
		if line[2] == ' ' {
			pathText = line[3:]
		} else {
			// Tolerate a shifted separator rather than dropping the entry.
			idx := strings.Index(line, " ")
			if idx < 2 {
				continue
			}
			pathText = line[idx+1:]
		}
		pathText = strings.TrimSpace(pathText)
		if pathText == "" {
			continue
		}

		if old, current, found := strings.Cut(pathText, " -> "); found {
			cs.Files = append(cs.Files, Change{
				Path:    strings.TrimSpace(current),
				Kind:    Renamed,
				OldPath: strings.TrimSpace(old),
			})
			continue
		}

		index, worktree := status[0], status[1]
		var kind Kind
		switch {
		case index == '?' || worktree == '?':
			kind = Added // untracked
		case index == 'D' || worktree == 'D':
			kind = Deleted
		case index == 'A':
			kind = Added // staged as new
		case index == 'R' || worktree == 'R':
			kind = Renamed
		default:
			kind = Modified
		}
		cs.Files = append(cs.Files, Change{Path: pathText, Kind: kind})
	}
	return cs
}
