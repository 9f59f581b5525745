package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/transcript"
)

// analyzeTimeout bounds a background conversation analysis.
const analyzeTimeout = 60 * time.Second

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.mgr.CurrentState(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddEmotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      string   `json:"type"`
		Intensity *float64 `json:"intensity"`
		Cause     string   `json:"cause"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Type == "" || req.Intensity == nil {
		writeError(w, http.StatusBadRequest, "type and intensity required")
		return
	}

	st, em, err := s.mgr.AddEmotion(r.Context(), req.Type, *req.Intensity, req.Cause)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"emotion": em,
		"state":   st,
	})
}

func (s *Server) handleBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Changes map[string]float64 `json:"changes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Changes) == 0 {
		writeError(w, http.StatusBadRequest, "changes required")
		return
	}

	st, err := s.mgr.ApplyBodyChanges(r.Context(), req.Changes)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var in engine.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.mgr.AddEvent(r.Context(), in)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleQueryMemories(w http.ResponseWriter, r *http.Request) {
	q, err := memoryQuery(r.URL.Query())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	mems, err := s.mgr.QueryMemories(r.Context(), q)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(mems),
		"memories": mems,
	})
}

// memoryQuery reads query parameters into an engine query. Range and enum
// checks are left to the engine.
func memoryQuery(v url.Values) (engine.MemoryQuery, error) {
	var q engine.MemoryQuery
	var err error
	if q.MinSalience, err = floatParam(v, "min_salience"); err != nil {
		return q, err
	}
	if q.MinIdentityRelevance, err = floatParam(v, "min_identity"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	if q.Since, err = engine.ParseTime("since", v.Get("since")); err != nil {
		return q, err
	}
	if q.Until, err = engine.ParseTime("until", v.Get("until")); err != nil {
		return q, err
	}
	q.Emotion = v.Get("emotion")
	q.Search = v.Get("search")
	q.Sort = v.Get("sort")
	q.IncludeArchived, _ = strconv.ParseBool(v.Get("archived"))
	return q, nil
}

func (s *Server) handleContextualMemories(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	var opts engine.ContextOptions
	for name, dst := range map[string]*int{
		"max_total":       &opts.MaxTotal,
		"recent_count":    &opts.RecentCount,
		"salient_count":   &opts.SalientCount,
		"days_for_recent": &opts.DaysForRecent,
	} {
		n, err := intParam(v, name)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		*dst = n
	}

	res, err := s.mgr.ContextualMemories(r.Context(), opts)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecallMemory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	mem, err := s.mgr.RecallMemory(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (s *Server) handleAttachLogbook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.mgr.AttachLogbook(r.Context(), id, req.Path); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	rep, err := s.mgr.DecayMemories(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	minStrength, err := floatParam(r.URL.Query(), "min_strength")
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	markers, err := s.mgr.Markers(r.Context(), minStrength)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(markers), "markers": markers})
}

func (s *Server) handleScanMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := s.mgr.ScanMarkers(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(markers), "markers": markers})
}

func (s *Server) handleLookupMarker(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	situation := v.Get("situation")
	if strings.TrimSpace(situation) == "" {
		writeError(w, http.StatusBadRequest, "situation parameter required")
		return
	}
	minStrength, err := floatParam(v, "min_strength")
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	sig, err := s.mgr.GutFeeling(r.Context(), situation, minStrength)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matched": sig != nil,
		"signal":  sig,
	})
}

func (s *Server) handleReinforceMarker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cue            string   `json:"cue"`
		OutcomeValence *float64 `json:"outcome_valence"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OutcomeValence == nil {
		writeError(w, http.StatusBadRequest, "outcome_valence required")
		return
	}

	mk, err := s.mgr.ReinforceMarker(r.Context(), req.Cue, *req.OutcomeValence)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mk)
}

func (s *Server) handleTraits(w http.ResponseWriter, r *http.Request) {
	traits, err := s.mgr.Traits(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"traits": traits})
}

func (s *Server) handleSetTrait(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Strength *float64 `json:"strength"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Strength == nil {
		writeError(w, http.StatusBadRequest, "strength required")
		return
	}

	if err := s.mgr.SetTrait(r.Context(), name, *req.Strength); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "strength": *req.Strength})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Clients parse transcripts on their side; the server never reads files
	// named in a request.
	var ex transcript.Exchange
	if !decodeJSON(w, r, &ex) {
		return
	}
	if ex.Empty() {
		writeError(w, http.StatusBadRequest, "user or assistant text required")
		return
	}

	// Analysis calls the classifier and can take seconds; return 202 now.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		rep, err := s.mgr.AnalyzeExchange(ctx, ex)
		if err != nil {
			log.Error().Err(err).Msg("conversation analysis failed")
			return
		}
		log.Info().Int("emotions", len(rep.Emotions)).Bool("memory", rep.Memory != nil).Msg("conversation analyzed")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "analyzing"})
}

func floatParam(v url.Values, name string) (float64, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &engine.ValidationError{Field: name, Reason: "must be a number"}
	}
	return f, nil
}

func intParam(v url.Values, name string) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &engine.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}
