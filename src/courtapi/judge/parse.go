package judge

import (
	"bufio"
	"strconv"
	"strings"
)

// The judgment service replies in free text with keyword-prefixed lines
// (WINNER:, REASON:, RULING:, ...). Each parser here tolerates missing or
// malformed lines by falling back to a conservative default: zero score
// change, overruled, upheld, or no winner at all. Inventing an outcome is
// worse than declining to parse one.

// ScoreResult is the credibility evaluation for one question/answer pair.
// Four factors, each clamped to [-10,+10], summed into Total.
type ScoreResult struct {
	Consistency  int
	Evidence     int
	Demeanor     int
	Plausibility int
	Analysis     string
	Flag         string // optional notable issue, e.g. a contradiction
}

func (s ScoreResult) Total() int {
	return s.Consistency + s.Evidence + s.Demeanor + s.Plausibility
}

// SnapResult is the early-termination check outcome.
type SnapResult struct {
	Triggered  bool
	WinnerName string
	Reason     string
}

// Ruling is the objection ruling outcome.
type Ruling struct {
	Sustained bool
	Reason    string
}

// VerdictResult is the full verdict payload.
type VerdictResult struct {
	WinnerName string
	Summary    string
	Reasoning  string
}

// AppealResult is the appeal ruling; Reversed=false means upheld.
type AppealResult struct {
	Reversed  bool
	NewWinner string
	Reason    string
}

// ParseScore extracts the four scoring factors. A missing or unparseable
// factor contributes zero; out-of-range factors are clamped.
func ParseScore(raw string) ScoreResult {
	return ScoreResult{
		Consistency:  factor(raw, "CONSISTENCY"),
		Evidence:     factor(raw, "EVIDENCE"),
		Demeanor:     factor(raw, "DEMEANOR"),
		Plausibility: factor(raw, "PLAUSIBILITY"),
		Analysis:     keywordLine(raw, "ANALYSIS"),
		Flag:         keywordLine(raw, "FLAG"),
	}
}

// ParseSnap extracts an early-termination signal. Anything short of an
// explicit YES with a recognizable winner is treated as "not triggered".
func ParseSnap(raw, nameA, nameB string) SnapResult {
	trigger := strings.ToUpper(keywordLine(raw, "TRIGGER"))
	if !strings.HasPrefix(trigger, "YES") {
		return SnapResult{}
	}
	winner := matchName(keywordLine(raw, "WINNER"), nameA, nameB)
	if winner == "" {
		return SnapResult{}
	}
	return SnapResult{
		Triggered:  true,
		WinnerName: winner,
		Reason:     keywordLine(raw, "REASON"),
	}
}

// ParseRuling extracts an objection ruling; the conservative default is
// overruled.
func ParseRuling(raw string) Ruling {
	ruling := strings.ToUpper(keywordLine(raw, "RULING"))
	return Ruling{
		Sustained: strings.HasPrefix(ruling, "SUSTAIN"),
		Reason:    keywordLine(raw, "REASON"),
	}
}

// ParseVerdict extracts the verdict fields. An unrecognizable winner comes
// back empty and the caller substitutes its deterministic fallback.
func ParseVerdict(raw, nameA, nameB string) VerdictResult {
	return VerdictResult{
		WinnerName: matchName(keywordLine(raw, "WINNER"), nameA, nameB),
		Summary:    keywordLine(raw, "SUMMARY"),
		Reasoning:  keywordLine(raw, "REASON"),
	}
}

// ParseAppeal extracts an appeal ruling. Unparseable output defaults to
// upheld; a reversal with no recognizable new winner also defaults to
// upheld rather than inventing one.
func ParseAppeal(raw, nameA, nameB string) AppealResult {
	decision := strings.ToUpper(keywordLine(raw, "DECISION"))
	if !strings.HasPrefix(decision, "REVERS") {
		return AppealResult{}
	}
	winner := matchName(keywordLine(raw, "WINNER"), nameA, nameB)
	if winner == "" {
		return AppealResult{}
	}
	return AppealResult{
		Reversed:  true,
		NewWinner: winner,
		Reason:    keywordLine(raw, "REASON"),
	}
}

// keywordLine returns the remainder of the first line starting with
// "<keyword>:" (case-insensitive), trimmed, or "".
func keywordLine(raw, keyword string) string {
	prefix := keyword + ":"
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}

func factor(raw, keyword string) int {
	v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(keywordLine(raw, keyword), "+")))
	if err != nil {
		return 0
	}
	if v > 10 {
		return 10
	}
	if v < -10 {
		return -10
	}
	return v
}

// matchName resolves a free-text winner reference against the two party
// names. "A"/"B" and "party a"/"party b" are accepted as aliases.
func matchName(text, nameA, nameB string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return ""
	}
	switch {
	case t == "a" || t == "party a" || (nameA != "" && strings.Contains(t, strings.ToLower(nameA))):
		return nameA
	case t == "b" || t == "party b" || (nameB != "" && strings.Contains(t, strings.ToLower(nameB))):
		return nameB
	}
	return ""
}
