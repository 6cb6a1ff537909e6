package preload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	l := Default()

	assert.Equal(t, []string{
		"start/routes",
		"start/events",
		"start/socket",
		"start/kernel",
		"database/factory",
	}, l.IDs())
	assert.False(t, l.IsOptional("start/routes"))
	assert.True(t, l.IsOptional("start/events"))
	assert.True(t, l.IsOptional("start/socket"))
	assert.True(t, l.IsOptional("start/kernel"))
	assert.True(t, l.IsOptional("database/factory"))
}

func TestInsertAfter(t *testing.T) {
	tests := []struct {
		name    string
		anchor  string
		wantIdx int
	}{
		{"bare anchor", "start/routes", 1},
		{"suffixed anchor", "start/routes.js", 1},
		{"middle anchor", "start/socket", 3},
		{"unmatched anchor appends", "start/does-not-exist", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Default().InsertAfter(tt.anchor, "start/foo")

			require.Equal(t, 6, l.Len())
			assert.Equal(t, "start/foo", l.IDs()[tt.wantIdx])
			assert.False(t, l.IsOptional("start/foo"))
		})
	}
}

func TestInsertBefore(t *testing.T) {
	l := Default().InsertBefore("start/events", "start/foo")
	assert.Equal(t, []string{
		"start/routes",
		"start/foo",
		"start/events",
		"start/socket",
		"start/kernel",
		"database/factory",
	}, l.IDs())

	l = Default().InsertBefore("start/events.js", "start/bar")
	assert.Equal(t, "start/bar", l.IDs()[1])

	l = Default().InsertBefore("start/non-existing", "start/foo")
	assert.Equal(t, "start/foo", l.IDs()[l.Len()-1])
}

func TestInsertDoesNotReorderExisting(t *testing.T) {
	l := Default()
	before := l.IDs()

	l.InsertAfter("start/kernel", "a").InsertBefore("start/routes", "b").InsertAfter("nope", "c")

	var kept []string
	for _, id := range l.IDs() {
		if id != "a" && id != "b" && id != "c" {
			kept = append(kept, id)
		}
	}
	assert.Equal(t, before, kept)
}

func TestAnchorMatchesFirstEntry(t *testing.T) {
	l := New("start/routes", "start/x", "start/routes")
	l.InsertAfter("start/routes", "start/foo")
	assert.Equal(t, []string{"start/routes", "start/foo", "start/x", "start/routes"}, l.IDs())
}

func TestSuffixOnlyToleratedOnAnchor(t *testing.T) {
	// An entry that already carries the suffix does not match a bare anchor.
	l := New("start/routes.js", "start/x")
	l.InsertAfter("start/routes", "start/foo")
	assert.Equal(t, []string{"start/routes.js", "start/x", "start/foo"}, l.IDs())
}

func TestDuplicatesAreKept(t *testing.T) {
	l := New().Append("start/foo").Append("start/foo")
	assert.Equal(t, []string{"start/foo", "start/foo"}, l.IDs())
}

func TestMarkOptional(t *testing.T) {
	l := New("start/foo", "start/bar", "start/foo")
	l.MarkOptional("start/foo.js")

	entries := l.Entries()
	assert.False(t, entries[0].Required)
	assert.True(t, entries[1].Required)
	assert.False(t, entries[2].Required)
	assert.False(t, l.IsOptional("unknown"))
}

func TestEntriesIsSnapshot(t *testing.T) {
	l := New("start/routes")
	entries := l.Entries()
	entries[0].ID = "mutated"
	entries[0].Required = false

	assert.Equal(t, "start/routes", l.IDs()[0])
	assert.False(t, l.IsOptional("start/routes"))
}

func TestInsertAtEdges(t *testing.T) {
	l := New("a", "b").
		InsertBefore("a", "head").
		InsertAfter("b", "tail").
		InsertAfter("head", "second")

	assert.Equal(t, []string{"head", "second", "a", "b", "tail"}, l.IDs())
	assert.False(t, l.IsOptional("tail"))
}
