// Package logbook keeps long-form journal entries as markdown files with YAML
// frontmatter. Memories link to entries by relative path.
package logbook

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

const previewLen = 200

// Meta is the YAML frontmatter of an entry.
type Meta struct {
	ID            string    `yaml:"id" json:"id"`
	MemoryID      int64     `yaml:"memory_id,omitempty" json:"memory_id,omitempty"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	Salience      float64   `yaml:"salience" json:"salience"`
	Emotions      []string  `yaml:"emotions,omitempty" json:"emotions,omitempty"`
	Tags          []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	NarrativeRole string    `yaml:"narrative_role,omitempty" json:"narrative_role,omitempty"`
}

// Entry is one journal entry.
type Entry struct {
	Meta               `yaml:",inline"`
	Path               string `yaml:"-" json:"path"`
	Title              string `yaml:"-" json:"title"`
	Context            string `yaml:"-" json:"context"`
	Experience         string `yaml:"-" json:"experience"`
	Reflection         string `yaml:"-" json:"reflection"`
	Connections        string `yaml:"-" json:"connections,omitempty"`
	FutureImplications string `yaml:"-" json:"future_implications,omitempty"`
}

// Match is a search hit.
type Match struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Meta    Meta   `json:"meta"`
	Preview string `json:"preview"`
}

// Book is a directory of entries.
type Book struct {
	Dir string

	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// New returns a Book rooted at dir. The directory is created on first write.
func New(dir string) *Book {
	return &Book{
		Dir:     dir,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Write stores e and returns its path relative to Dir. A zero CreatedAt
// means now.
func (b *Book) Write(e Entry) (string, error) {
	if strings.TrimSpace(e.Title) == "" {
		return "", errors.New("logbook entry needs a title")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = b.now()
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Second)

	b.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(e.CreatedAt), b.entropy)
	b.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("entry id: %w", err)
	}
	e.ID = id.String()

	content, err := render(e)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", fmt.Errorf("create logbook dir: %w", err)
	}

	name := fileName(e.Title, e.CreatedAt)
	f, err := os.OpenFile(filepath.Join(b.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		name = strings.TrimSuffix(name, ".md") + "_" + strings.ToLower(e.ID[len(e.ID)-6:]) + ".md"
		f, err = os.OpenFile(filepath.Join(b.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return "", fmt.Errorf("write entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close entry: %w", err)
	}
	return name, nil
}

// Read parses the entry at rel, a path returned by Write or List.
func (b *Book) Read(rel string) (*Entry, error) {
	path, err := b.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	e, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	e.Path = filepath.Base(path)
	return e, nil
}

// List returns entries newest first. A non-empty tag keeps only entries
// carrying it.
func (b *Book) List(tag string) ([]Entry, error) {
	names, err := b.names()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, name := range names {
		e, err := b.Read(name)
		if err != nil {
			continue // foreign or hand-edited file
		}
		if tag != "" && !contains(e.Tags, tag) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// Search returns entries whose body contains keywords, case-insensitively.
func (b *Book) Search(keywords string) ([]Match, error) {
	needle := strings.ToLower(strings.TrimSpace(keywords))
	if needle == "" {
		return nil, nil
	}
	names, err := b.names()
	if err != nil {
		return nil, err
	}
	var out []Match
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(b.Dir, name))
		if err != nil {
			continue
		}
		e, err := parse(string(data))
		if err != nil {
			continue
		}
		_, body, _ := splitFrontmatter(string(data))
		body = strings.TrimSpace(body)
		if !strings.Contains(strings.ToLower(body), needle) {
			continue
		}
		out = append(out, Match{Path: name, Title: e.Title, Meta: e.Meta, Preview: preview(body)})
	}
	return out, nil
}

func (b *Book) names() ([]string, error) {
	entries, err := os.ReadDir(b.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list logbook: %w", err)
	}
	var names []string
	for _, d := range entries {
		n := d.Name()
		if d.IsDir() || !strings.HasSuffix(n, ".md") || strings.EqualFold(n, "README.md") {
			continue
		}
		names = append(names, n)
	}
	// File names start with the timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// resolve maps rel into Dir, accepting a leading "logbook/" and refusing
// anything that escapes the directory.
func (b *Book) resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "logbook/")
	if rel == "" || strings.Contains(rel, "/") || rel == "." || rel == ".." {
		return "", fmt.Errorf("invalid logbook path %q: %w", rel, fs.ErrNotExist)
	}
	return filepath.Join(b.Dir, rel), nil
}

func fileName(title string, at time.Time) string {
	return at.Format("2006-01-02_150405") + "_" + slug(title) + ".md"
}

func slug(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	s := strings.Trim(sb.String(), "-")
	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	if s == "" {
		return "entry"
	}
	return s
}

func render(e Entry) ([]byte, error) {
	fm, err := yaml.Marshal(e.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", strings.TrimSpace(e.Title))
	section(&buf, "Context", e.Context)
	section(&buf, "Experience", e.Experience)
	section(&buf, "Reflection", e.Reflection)
	if strings.TrimSpace(e.Connections) != "" {
		section(&buf, "Connections", e.Connections)
	}
	if strings.TrimSpace(e.FutureImplications) != "" {
		section(&buf, "Future Implications", e.FutureImplications)
	}
	fmt.Fprintf(&buf, "*Sable, %s*\n", e.CreatedAt.Format("2006-01-02"))
	return buf.Bytes(), nil
}

func section(buf *bytes.Buffer, heading, text string) {
	fmt.Fprintf(buf, "## %s\n%s\n\n", heading, strings.TrimSpace(text))
}

func parse(content string) (*Entry, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	var e Entry
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &e.Meta); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	sections := map[string]*strings.Builder{}
	var current *strings.Builder
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			current = &strings.Builder{}
			sections[strings.TrimSpace(line[3:])] = current
		case strings.HasPrefix(line, "# ") && e.Title == "":
			e.Title = strings.TrimSpace(line[2:])
			current = nil
		case strings.HasPrefix(line, "*Sable, "):
			current = nil
		case current != nil:
			current.WriteString(line)
			current.WriteByte('\n')
		}
	}
	get := func(name string) string {
		if sb, ok := sections[name]; ok {
			return strings.TrimSpace(sb.String())
		}
		return ""
	}
	e.Context = get("Context")
	e.Experience = get("Experience")
	e.Reflection = get("Reflection")
	e.Connections = get("Connections")
	e.FutureImplications = get("Future Implications")
	if e.Title == "" {
		e.Title = "Untitled"
	}
	return &e, nil
}

// splitFrontmatter separates the YAML block delimited by --- lines from
// the markdown body.
func splitFrontmatter(content string) (string, string, error) {
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", content, errors.New("frontmatter not closed")
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen]) + "..."
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
