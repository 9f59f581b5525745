package engine

import (
	"math"
	"testing"

	"github.com/lazypower/sable/internal/affect"
	"github.com/lazypower/sable/internal/llm"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  affect.Kind
		ok    bool
	}{
		{"fear", affect.Fear, true},
		{"  Joy ", affect.Joy, true},
		{"FRUSTRATION", affect.Frustration, true},
		{"nostalgia", "", false},
		{"", "", false},
		{"fear; DROP TABLE", "", false},
	}

	for _, tt := range tests {
		got, err := parseKind("type", tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("parseKind(%q) err = %v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("parseKind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateImpact(t *testing.T) {
	im, err := validateImpact(map[string]float64{"fear": 0.4, "Joy": 1.8})
	if err != nil {
		t.Fatalf("validateImpact: %v", err)
	}
	if im[affect.Joy] != 1 {
		t.Errorf("joy = %v, want clamped to 1", im[affect.Joy])
	}

	bad := []map[string]float64{
		{"fear": -0.1},
		{"fear": math.NaN()},
		{"fear": math.Inf(1)},
		{"hope": 0.5},
	}
	for _, raw := range bad {
		if _, err := validateImpact(raw); !IsValidation(err) {
			t.Errorf("validateImpact(%v) err = %v, want ValidationError", raw, err)
		}
	}
}

func TestContextOptionsDefaults(t *testing.T) {
	got, err := ContextOptions{SalientCount: 2}.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := ContextOptions{MaxTotal: 15, RecentCount: 10, SalientCount: 2, DaysForRecent: 7}
	if got != want {
		t.Errorf("resolve = %+v, want %+v", got, want)
	}
}

func TestContextOptionsRejectsHugeRecentWindow(t *testing.T) {
	if _, err := (ContextOptions{DaysForRecent: maxDaysForRecent}).resolve(); err != nil {
		t.Errorf("resolve at the cap: %v", err)
	}
	_, err := ContextOptions{DaysForRecent: 200000}.resolve()
	if !IsValidation(err) {
		t.Errorf("resolve(days_for_recent=200000) err = %v, want validation error", err)
	}
}

func TestReinforce(t *testing.T) {
	tests := []struct {
		strength, valence, outcome float64
		want                       float64
	}{
		{0.5, -0.6, -0.8, 0.55}, // agreement 0.9
		{0.98, 0.5, 0.5, 1.0},   // capped
		{0.5, 0.8, -0.6, 0.4},   // agreement 0.3
		{0.15, 1, -1, 0.1},      // floored
		{0.5, 0, 1, 0.4},        // agreement exactly 0.5 weakens
	}
	for _, tt := range tests {
		got := reinforce(tt.strength, tt.valence, tt.outcome)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("reinforce(%v, %v, %v) = %v, want %v", tt.strength, tt.valence, tt.outcome, got, tt.want)
		}
	}
}

func TestCandidatesResonance(t *testing.T) {
	user := &llm.Analysis{Emotions: affect.Impact{
		affect.Sadness: 0.8,  // compassion 0.48
		affect.Anger:   0.4,  // at the floor, ignored
		affect.Joy:     0.9,  // joy 0.63
		affect.Shame:   0.95, // no resonance
	}}
	assistant := &llm.Analysis{Emotions: affect.Impact{
		affect.Joy:        0.5,
		affect.Compassion: 0.2,
	}}

	got := candidates(user, assistant)
	want := affect.Impact{affect.Compassion: 0.48, affect.Joy: 0.63}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for k, v := range want {
		if math.Abs(got[k]-v) > 1e-9 {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestConversationImpact(t *testing.T) {
	c := conversationImpact(&llm.Analysis{
		Emotions: affect.Impact{affect.Joy: 0.6, affect.Curiosity: 0.4},
		Valence:  0.5,
		Arousal:  0.9,
	})
	want := affect.Changes{
		affect.ParamArousal: 0.12,
		affect.ParamValence: 0.1,
		affect.ParamEnergy:  0.0,
		affect.ParamStress:  0.1,
	}
	for p, v := range want {
		if math.Abs(c[p]-v) > 1e-9 {
			t.Errorf("%s = %v, want %v", p, c[p], v)
		}
	}

	neg := conversationImpact(&llm.Analysis{Valence: -0.4, Arousal: 0.2})
	if math.Abs(neg[affect.ParamEnergy]-(-0.07)) > 1e-9 {
		t.Errorf("energy = %v, want -0.07", neg[affect.ParamEnergy])
	}
	if _, ok := neg[affect.ParamArousal]; ok {
		t.Error("low arousal should not raise arousal")
	}
}
