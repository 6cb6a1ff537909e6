// Package preload holds the ordered list of modules the orchestrator executes
// once boot has finished.
//
// Entries are positioned relative to anchors rather than indexes, so an
// extension can ask to run "after start/routes" without knowing where that
// entry ends up. An anchor matches an entry whose id equals the anchor, or whose
// id plus DefaultSuffix equals the anchor.
package preload

import "slices"

// DefaultSuffix is the source-file suffix anchors may carry.
const DefaultSuffix = ".js"

// Entry is a single module slated for preloading.
type Entry struct {
	ID string `json:"id"`

	// Required entries abort the run when missing; optional ones are skipped.
	Required bool `json:"required"`
}

// List is an ordered sequence of preload entries.
// It is not safe for concurrent mutation; configure it before the run starts.
type List struct {
	entries []Entry
}

// New creates a list of required entries.
func New(ids ...string) *List {
	l := &List{}
	for _, id := range ids {
		l.Append(id)
	}
	return l
}

// Default returns the framework preload set. Only start/routes is required.
func Default() *List {
	return New("start/routes").
		AppendOptional("start/events").
		AppendOptional("start/socket").
		AppendOptional("start/kernel").
		AppendOptional("database/factory")
}

// Append adds a required entry at the end.
func (l *List) Append(id string) *List {
	l.entries = append(l.entries, Entry{ID: id, Required: true})
	return l
}

// AppendOptional adds an optional entry at the end.
func (l *List) AppendOptional(id string) *List {
	l.entries = append(l.entries, Entry{ID: id})
	return l
}

// InsertAfter places a required entry right after the first entry matching
// anchor. Without a match it appends.
func (l *List) InsertAfter(anchor, id string) *List {
	idx := l.index(anchor)
	if idx == -1 {
		return l.Append(id)
	}
	l.entries = slices.Insert(l.entries, idx+1, Entry{ID: id, Required: true})
	return l
}

// InsertBefore places a required entry right before the first entry matching
// anchor. Without a match it appends.
func (l *List) InsertBefore(anchor, id string) *List {
	idx := l.index(anchor)
	if idx == -1 {
		return l.Append(id)
	}
	l.entries = slices.Insert(l.entries, idx, Entry{ID: id, Required: true})
	return l
}

// MarkOptional flags every entry matching id as optional.
func (l *List) MarkOptional(id string) *List {
	for i := range l.entries {
		if matches(l.entries[i].ID, id) {
			l.entries[i].Required = false
		}
	}
	return l
}

// IsOptional reports whether the first entry matching id is optional.
// Unknown ids are reported as required.
func (l *List) IsOptional(id string) bool {
	idx := l.index(id)
	return idx != -1 && !l.entries[idx].Required
}

// Entries returns a snapshot of the list.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// IDs returns the entry ids in order.
func (l *List) IDs() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.ID
	}
	return out
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Reset empties the list.
func (l *List) Reset() *List {
	l.entries = nil
	return l
}

func (l *List) index(anchor string) int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return matches(e.ID, anchor) })
}

func matches(id, anchor string) bool {
	return id == anchor || id+DefaultSuffix == anchor
}
