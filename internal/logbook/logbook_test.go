package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBook(t *testing.T) *Book {
	t.Helper()
	b := New(filepath.Join(t.TempDir(), "logbook"))
	at := time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)
	b.now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
	return b
}

func TestWriteAndRead(t *testing.T) {
	b := testBook(t)

	path, err := b.Write(Entry{
		Meta: Meta{
			MemoryID:      7,
			Salience:      0.85,
			Emotions:      []string{"pride", "joy"},
			Tags:          []string{"milestone"},
			NarrativeRole: "breakthrough",
		},
		Title:       "First green build!",
		Context:     "Weeks of flaky tests.",
		Experience:  "The pipeline finally passed.",
		Reflection:  "Patience with the harness paid off.",
		Connections: "Memory 3 about the flaky runner.",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14_213100_first-green-build.md", path)

	e, err := b.Read(path)
	require.NoError(t, err)
	assert.Equal(t, path, e.Path)
	assert.Len(t, e.ID, 26)
	assert.Equal(t, int64(7), e.MemoryID)
	assert.Equal(t, 0.85, e.Salience)
	assert.Equal(t, []string{"pride", "joy"}, e.Emotions)
	assert.Equal(t, "breakthrough", e.NarrativeRole)
	assert.True(t, e.CreatedAt.Equal(time.Date(2026, 3, 14, 21, 31, 0, 0, time.UTC)))
	assert.Equal(t, "First green build!", e.Title)
	assert.Equal(t, "Weeks of flaky tests.", e.Context)
	assert.Equal(t, "The pipeline finally passed.", e.Experience)
	assert.Equal(t, "Patience with the harness paid off.", e.Reflection)
	assert.Equal(t, "Memory 3 about the flaky runner.", e.Connections)
	assert.Empty(t, e.FutureImplications)

	raw, err := os.ReadFile(filepath.Join(b.Dir, path))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "---\nid: "))
	assert.NotContains(t, string(raw), "## Future Implications")

	// the legacy "logbook/" prefix resolves too
	_, err = b.Read("logbook/" + path)
	require.NoError(t, err)
}

func TestWriteRequiresTitle(t *testing.T) {
	b := testBook(t)
	_, err := b.Write(Entry{Context: "x"})
	assert.Error(t, err)
}

func TestWriteNameCollision(t *testing.T) {
	b := testBook(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p1, err := b.Write(Entry{Meta: Meta{CreatedAt: at}, Title: "Same"})
	require.NoError(t, err)
	p2, err := b.Write(Entry{Meta: Meta{CreatedAt: at}, Title: "Same"})
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestReadRejectsEscapes(t *testing.T) {
	b := testBook(t)
	for _, p := range []string{"", "../secrets.md", "a/b.md", ".."} {
		_, err := b.Read(p)
		assert.Error(t, err, p)
	}
}

func TestListNewestFirstAndByTag(t *testing.T) {
	b := testBook(t)

	_, err := b.Write(Entry{Title: "older", Meta: Meta{Tags: []string{"work"}}})
	require.NoError(t, err)
	_, err = b.Write(Entry{Title: "newer"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir, "README.md"), []byte("# readme"), 0644))

	all, err := b.List("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].Title)
	assert.Equal(t, "older", all[1].Title)

	work, err := b.List("WORK")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "older", work[0].Title)
}

func TestListMissingDir(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "absent"))
	entries, err := b.List("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearch(t *testing.T) {
	b := testBook(t)

	_, err := b.Write(Entry{Title: "Debugging night", Experience: strings.Repeat("the Race detector lit up ", 20)})
	require.NoError(t, err)
	_, err = b.Write(Entry{Title: "Quiet day", Experience: "nothing much"})
	require.NoError(t, err)

	hits, err := b.Search("race DETECTOR")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Debugging night", hits[0].Title)
	assert.True(t, strings.HasSuffix(hits[0].Preview, "..."))
	assert.Equal(t, previewLen+3, len([]rune(hits[0].Preview)))

	none, err := b.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "first-green-build", slug("First green build!"))
	assert.Equal(t, "entry", slug("!!!"))
	assert.Equal(t, "caf", slug("Café"))
	assert.LessOrEqual(t, len(slug(strings.Repeat("word ", 40))), 50)
}
