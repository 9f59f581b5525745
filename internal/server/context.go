package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/store"
	"github.com/lazypower/sable/internal/transcript"
)

// contextDescriptionLen caps each memory line in the context block.
const contextDescriptionLen = 160

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	block, err := s.buildContext(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"context": block,
	})
}

// buildContext renders the state and contextual memories as the markdown
// block injected at session start.
func (s *Server) buildContext(ctx context.Context) (string, error) {
	st, err := s.mgr.CurrentState(ctx)
	if err != nil {
		return "", err
	}
	mems, err := s.mgr.ContextualMemories(ctx, engine.ContextOptions{})
	if err != nil {
		return "", err
	}
	return renderContext(st, mems), nil
}

func renderContext(st *engine.State, mems *engine.ContextualResult) string {
	var b strings.Builder

	b.WriteString("<context>\n## Sable: Emotional State\n")

	fmt.Fprintf(&b, "\nBackground mood: %s\n", st.Background)
	fmt.Fprintf(&b, "Valence %+.2f, arousal %.2f, homeostatic pressure %.2f\n", st.Valence, st.Arousal, st.Pressure)

	if len(st.Feelings) > 0 {
		b.WriteString("\n### Feeling\n")
		for _, f := range st.Feelings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if len(mems.Recent) > 0 {
		b.WriteString("\n### Recent Memories\n")
		writeMemories(&b, mems.Recent, st.Timestamp)
	}
	if len(mems.Salient) > 0 {
		b.WriteString("\n### Significant Memories\n")
		writeMemories(&b, mems.Salient, st.Timestamp)
	}

	b.WriteString("</context>")
	return b.String()
}

func writeMemories(b *strings.Builder, mems []store.Memory, now time.Time) {
	for _, m := range mems {
		var kinds []string
		for _, k := range m.AssociatedEmotions {
			kinds = append(kinds, string(k))
		}
		fmt.Fprintf(b, "- [%s] %s", humanize.RelTime(m.OccurredAt, now, "ago", "from now"),
			transcript.Truncate(m.Description, contextDescriptionLen))
		if len(kinds) > 0 {
			fmt.Fprintf(b, " (%s)", strings.Join(kinds, ", "))
		}
		b.WriteString("\n")
	}
}
