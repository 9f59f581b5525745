package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/store"
	"github.com/lazypower/sable/internal/transcript"
)

const barWidth = 20

var (
	colorPositive = lipgloss.Color("#10B981")
	colorNegative = lipgloss.Color("#EF4444")
	colorAccent   = lipgloss.Color("#7C3AED")
	colorMuted    = lipgloss.AdaptiveColor{Light: "#737373", Dark: "#A3A3A3"}

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(9)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

var statusFormats = []string{"rich", "markdown", "brief", "json"}

func checkFormat(format string, allowed []string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(allowed, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(w io.Writer, st *engine.State, stats *engine.MemoryStats, format string) error {
	switch format {
	case "json":
		return writeJSON(w, st)
	case "brief":
		_, err := fmt.Fprintln(w, briefStatus(st))
		return err
	case "markdown":
		_, err := io.WriteString(w, markdownStatus(st, stats))
		return err
	default:
		_, err := fmt.Fprintln(w, richStatus(st, stats))
		return err
	}
}

func briefStatus(st *engine.State) string {
	line := fmt.Sprintf("%s | valence %+.2f arousal %.2f | pressure %.2f", st.Background, st.Valence, st.Arousal, st.Pressure)
	if len(st.Feelings) > 0 {
		line += " | " + st.Feelings[0]
	}
	return line
}

func markdownStatus(st *engine.State, stats *engine.MemoryStats) string {
	var b strings.Builder
	b.WriteString("## Emotional State\n\n")
	fmt.Fprintf(&b, "- **Background:** %s\n", st.Background)
	fmt.Fprintf(&b, "- **Valence:** %+.2f\n", st.Valence)
	fmt.Fprintf(&b, "- **Arousal:** %.2f\n", st.Arousal)
	fmt.Fprintf(&b, "- **Homeostatic pressure:** %.2f\n", st.Pressure)

	b.WriteString("\n### Body\n\n| param | value |\n|---|---|\n")
	for _, p := range affect.Params {
		fmt.Fprintf(&b, "| %s | %.2f |\n", p, st.Body.Get(p))
	}

	if len(st.Feelings) > 0 {
		b.WriteString("\n### Feeling\n\n")
		for _, f := range st.Feelings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(st.Emotions) > 0 {
		b.WriteString("\n### Active Emotions\n\n")
		for _, e := range st.Emotions {
			fmt.Fprintf(&b, "- %s %.2f", e.Kind, e.Intensity)
			if e.Cause != "" {
				fmt.Fprintf(&b, " (%s)", e.Cause)
			}
			b.WriteString("\n")
		}
	}
	if stats != nil {
		fmt.Fprintf(&b, "\n%d memories (%d archived), %d events\n", stats.Active, stats.Archived, stats.Events)
	}
	return b.String()
}

func richStatus(st *engine.State, stats *engine.MemoryStats) string {
	var lines []string
	lines = append(lines, titleStyle.Render("sable")+"  "+mutedStyle.Render(string(st.Background)))
	lines = append(lines, fmt.Sprintf("valence %s  arousal %.2f  pressure %.2f",
		signed(st.Valence), st.Arousal, st.Pressure))
	lines = append(lines, "")

	for _, p := range affect.Params {
		lo, hi := p.Bounds()
		v := st.Body.Get(p)
		lines = append(lines, labelStyle.Render(string(p))+bar(v, lo, hi)+fmt.Sprintf(" %5.2f", v))
	}

	if len(st.Feelings) > 0 {
		lines = append(lines, "")
		for _, f := range st.Feelings {
			lines = append(lines, "• "+f)
		}
	}
	if stats != nil {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("%s memories, %s archived, %s events",
			humanize.Comma(int64(stats.Active)), humanize.Comma(int64(stats.Archived)), humanize.Comma(int64(stats.Events)))))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// bar draws v within [lo,hi]. Signed ranges fill from the middle.
func bar(v, lo, hi float64) string {
	cells := make([]rune, barWidth)
	for i := range cells {
		cells[i] = '░'
	}
	pos := int((v - lo) / (hi - lo) * barWidth)
	pos = max(0, min(barWidth, pos))

	start, end := 0, pos
	color := colorAccent
	if lo < 0 {
		mid := barWidth / 2
		start, end = min(mid, pos), max(mid, pos)
		color = colorPositive
		if v < 0 {
			color = colorNegative
		}
	}
	for i := start; i < end; i++ {
		cells[i] = '█'
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(cells))
}

func signed(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	switch {
	case v > 0:
		return lipgloss.NewStyle().Foreground(colorPositive).Render(s)
	case v < 0:
		return lipgloss.NewStyle().Foreground(colorNegative).Render(s)
	}
	return s
}

func renderMemories(w io.Writer, mems []store.Memory, now time.Time, format string) error {
	if format == "json" {
		return writeJSON(w, mems)
	}
	if len(mems) == 0 {
		_, err := fmt.Fprintln(w, "No memories found.")
		return err
	}
	for _, m := range mems {
		fmt.Fprintln(w, memoryLine(m, now))
	}
	return nil
}

func memoryLine(m store.Memory, now time.Time) string {
	var kinds []string
	for _, k := range m.AssociatedEmotions {
		kinds = append(kinds, string(k))
	}
	line := fmt.Sprintf("#%d [%.2f] %s  %s", m.ID, m.Salience,
		humanize.RelTime(m.OccurredAt, now, "ago", "from now"),
		transcript.Truncate(m.Description, 100))
	if len(kinds) > 0 {
		line += mutedStyle.Render(" (" + strings.Join(kinds, ", ") + ")")
	}
	if m.Archived {
		line += mutedStyle.Render(" archived")
	}
	return line
}

func renderMemory(w io.Writer, m *store.Memory, now time.Time) {
	fmt.Fprintf(w, "Memory #%d\n", m.ID)
	fmt.Fprintf(w, "  %s\n", m.Description)
	if m.Context != "" {
		fmt.Fprintf(w, "  context: %s\n", m.Context)
	}
	fmt.Fprintf(w, "  occurred:      %s (%s)\n", m.OccurredAt.Format(time.RFC3339), humanize.RelTime(m.OccurredAt, now, "ago", "from now"))
	fmt.Fprintf(w, "  salience:      %.3f\n", m.Salience)
	fmt.Fprintf(w, "  consolidation: %.3f\n", m.Consolidation)
	fmt.Fprintf(w, "  identity:      %.2f\n", m.IdentityRelevance)
	fmt.Fprintf(w, "  accessed:      %s\n", english.Plural(m.AccessCount, "time", "times"))
	for _, k := range m.Impact.Kinds() {
		fmt.Fprintf(w, "  %-13s  %.2f\n", k, m.Impact[k])
	}
	if m.LogbookPath != "" {
		fmt.Fprintf(w, "  logbook:       %s\n", m.LogbookPath)
	}
}
