package transcript

import (
	"strings"
)

const ellipsis = "..."

// Truncate shortens text to at most max runes, marking the cut with "...".
// A non-positive max leaves text unchanged.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= len(ellipsis) {
		return string(r[:max])
	}
	return strings.TrimSpace(string(r[:max-len(ellipsis)])) + ellipsis
}

// Condense fits text into max runes keeping its head and tail, where the
// emotional content of a long message usually sits.
func Condense(text string, max int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	const gap = " [...] "
	if max <= 2*len(gap) {
		return Truncate(text, max)
	}
	head := (max - len(gap)) * 2 / 3
	tail := max - len(gap) - head
	return string(r[:head]) + gap + string(r[len(r)-tail:])
}

// Summarize renders an exchange as a short two-line record of at most max
// runes, giving the user side at most half.
func Summarize(ex Exchange, max int) string {
	user := oneLine(ex.User)
	asst := oneLine(ex.Assistant)
	const userLabel, asstLabel = "User: ", "Assistant: "

	full := userLabel + user + "\n" + asstLabel + asst
	budget := max - len(userLabel) - len(asstLabel) - 1
	if max <= 0 {
		return full
	}
	if budget < 20 {
		return Truncate(full, max)
	}

	userMax := budget / 2
	if n := len([]rune(user)); n < userMax {
		userMax = n
	}
	user = Truncate(user, userMax)
	asst = Truncate(asst, budget-len([]rune(user)))
	return userLabel + user + "\n" + asstLabel + asst
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
