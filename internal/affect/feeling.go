package affect

import "fmt"

// Qualifier renders an intensity as an adverb.
func Qualifier(intensity float64) string {
	switch {
	case intensity < 0.2:
		return "slightly"
	case intensity < 0.4:
		return "somewhat"
	case intensity < 0.6:
		return "moderately"
	case intensity < 0.8:
		return "quite"
	}
	return "extremely"
}

// Verbalize turns an instance into a first-person sentence.
func Verbalize(e Emotion) string {
	adj := string(e.Kind)
	if spec, ok := Lookup(e.Kind); ok && spec.Adjective != "" {
		adj = spec.Adjective
	}
	if e.Cause == "" {
		return fmt.Sprintf("I feel %s %s", Qualifier(e.Intensity), adj)
	}
	return fmt.Sprintf("I feel %s %s about %s", Qualifier(e.Intensity), adj, e.Cause)
}

// Feelings verbalizes the strongest active instances, at most n.
func Feelings(emotions []Emotion, n int) []string {
	active := Active(emotions)
	if n > 0 && len(active) > n {
		active = active[:n]
	}
	out := make([]string, 0, len(active))
	for _, e := range active {
		out = append(out, Verbalize(e))
	}
	return out
}
