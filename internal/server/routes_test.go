package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/llm"
)

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func TestStateEndpoint(t *testing.T) {
	srv := testServer(t)

	w, resp := do(t, srv, "GET", "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp, "body")
	assert.Contains(t, resp, "background_emotion")
	assert.Contains(t, resp, "homeostatic_pressure")
}

func TestAddEmotionAndBody(t *testing.T) {
	srv := testServer(t)

	w, resp := do(t, srv, "POST", "/api/emotions", `{"type":"fear","intensity":0.8,"cause":"test"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	em := resp["emotion"].(map[string]any)
	assert.Equal(t, "fear", em["type"])
	assert.Equal(t, 0.8, em["intensity"])

	w, resp = do(t, srv, "POST", "/api/body", `{"changes":{"valence":2.0}}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := resp["body"].(map[string]any)
	assert.Equal(t, 1.0, body["valence"], "clamped")
}

func TestEventBecomesMemory(t *testing.T) {
	srv := testServer(t)

	w, resp := do(t, srv, "POST", "/api/events",
		`{"description":"Finished the migration without data loss","emotional_impact":{"joy":0.6,"pride":0.5}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	mem := resp["memory"].(map[string]any)
	id := int(mem["id"].(float64))

	w, resp = do(t, srv, "GET", "/api/memories?emotion=pride", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp["count"])

	w, resp = do(t, srv, "GET", "/api/memories/"+strconv.Itoa(id), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, resp["access_count"], "query plus recall")

	w, resp = do(t, srv, "GET", "/api/memories/context", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["recent"], 1)

	w, resp = do(t, srv, "POST", "/api/decay", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp, "archived")
}

func TestMarkerRoutes(t *testing.T) {
	srv := testServer(t)

	for _, body := range []string{
		`{"description":"Flaky integration tests again","emotional_impact":{"frustration":0.7,"anger":0.3}}`,
		`{"description":"Integration suite timed out","emotional_impact":{"frustration":0.6,"unease":0.4}}`,
	} {
		w, _ := do(t, srv, "POST", "/api/events", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := do(t, srv, "POST", "/api/markers/scan", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp["count"])

	w, resp = do(t, srv, "GET", "/api/markers/lookup?situation=running+the+integration+job", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["matched"])
	sig := resp["signal"].(map[string]any)
	assert.Equal(t, "integration", sig["cue"])

	w, resp = do(t, srv, "POST", "/api/markers/reinforce", `{"cue":"integration","outcome_valence":-0.7}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, resp["reinforcement_count"])
}

func TestTraitRoutes(t *testing.T) {
	srv := testServer(t)

	w, _ := do(t, srv, "PUT", "/api/traits/emotional_reactivity", `{"strength":0.9}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := do(t, srv, "GET", "/api/traits", "")
	require.Equal(t, http.StatusOK, w.Code)
	traits := resp["traits"].([]any)
	require.Len(t, traits, 1)
	assert.Equal(t, "emotional_reactivity", traits[0].(map[string]any)["name"])
}

func TestAnalyzeIsAsync(t *testing.T) {
	classifier := llm.ClassifierFunc(func(ctx context.Context, text string) (*llm.Analysis, error) {
		return &llm.Analysis{Emotions: affect.Impact{affect.Curiosity: 0.6}, Valence: 0.3, Arousal: 0.6}, nil
	})
	srv := testServer(t, engine.WithClassifier(classifier))

	w, resp := do(t, srv, "POST", "/api/analyze", `{"user":"what is a goroutine?","assistant":"A lightweight thread."}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "analyzing", resp["status"])

	assert.Eventually(t, func() bool {
		st, err := srv.mgr.CurrentState(context.Background())
		return err == nil && len(st.Emotions) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalyzeIgnoresTranscriptPath(t *testing.T) {
	srv := testServer(t)

	path := filepath.Join(t.TempDir(), "session.jsonl")
	line := `{"type":"user","message":{"role":"user","content":"secret"}}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0o600))

	w, resp := do(t, srv, "POST", "/api/analyze", `{"transcript_path":"`+path+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, resp["error"], "secret")
}

func TestContextBlock(t *testing.T) {
	srv := testServer(t)

	do(t, srv, "POST", "/api/emotions", `{"type":"curiosity","intensity":0.7,"cause":"the new project"}`)
	do(t, srv, "POST", "/api/events",
		`{"description":"Learned the user's name is Ada","emotional_impact":{"joy":0.5,"compassion":0.4}}`)

	w, resp := do(t, srv, "GET", "/api/context", "")
	require.Equal(t, http.StatusOK, w.Code)

	block := resp["context"].(string)
	assert.True(t, strings.HasPrefix(block, "<context>"))
	assert.True(t, strings.HasSuffix(block, "</context>"))
	assert.Contains(t, block, "Background mood:")
	assert.Contains(t, block, "I feel")
	assert.Contains(t, block, "Learned the user's name is Ada")
	assert.Contains(t, block, "(compassion, joy)")
}
