package judge

import (
	"fmt"
	"strings"
)

var personaPrompts = map[string]string{
	"stern": `You are a stern, procedure-obsessed trial judge.
Be terse and formal. Cite what was actually said. No sympathy for waffling.`,

	"judy": `You are a direct, no-nonsense TV judge.
Punchy sentences. Call out nonsense when you see it. One catchphrase allowed.`,

	"comedic": `You are a witty comedic judge.
Roast weak arguments, reward good ones, keep it short.`,
}

// PersonaPrompt returns the system prompt for a judge persona, defaulting to
// the stern judge for unknown names.
func PersonaPrompt(persona string) string {
	if p, ok := personaPrompts[persona]; ok {
		return p
	}
	return personaPrompts["stern"]
}

// Exchange is one recorded question/answer pair in transcript order.
type Exchange struct {
	Round    int
	Party    string // answering party's name
	Question string
	Answer   string
	FollowUp bool
}

// CaseContext is the structured case material passed into every judge
// operation.
type CaseContext struct {
	PartyAName   string
	PartyBName   string
	StatementA   string
	StatementB   string
	Transcript   []Exchange
	CredibilityA int
	CredibilityB int
}

func (cc CaseContext) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispute: %s (plaintiff) vs %s (defendant)\n\n", cc.PartyAName, cc.PartyBName)
	fmt.Fprintf(&b, "%s's opening statement:\n%s\n\n", cc.PartyAName, cc.StatementA)
	fmt.Fprintf(&b, "%s's opening statement:\n%s\n\n", cc.PartyBName, cc.StatementB)
	if len(cc.Transcript) > 0 {
		b.WriteString("Cross-examination so far:\n")
		for _, ex := range cc.Transcript {
			fmt.Fprintf(&b, "[round %d] Q to %s: %s\nA: %s\n", ex.Round+1, ex.Party, ex.Question, ex.Answer)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Current credibility: %s %d, %s %d\n",
		cc.PartyAName, cc.CredibilityA, cc.PartyBName, cc.CredibilityB)
	return b.String()
}

func questionPrompt(cc CaseContext, targetName string, round int) string {
	return fmt.Sprintf(`%s
You are cross-examining %s (round %d of 3).
Ask exactly ONE pointed question that probes the weakest part of their account.
Reply with the question text only, no preamble.`, cc.render(), targetName, round+1)
}

func scorePrompt(cc CaseContext, targetName, question, answer string) string {
	return fmt.Sprintf(`%s
%s was asked: %s
They answered: %s

Score the answer on four factors, each an integer from -10 to +10.
Reply in exactly this format:
CONSISTENCY: <n>
EVIDENCE: <n>
DEMEANOR: <n>
PLAUSIBILITY: <n>
ANALYSIS: <one sentence>
FLAG: <notable issue, or omit this line>`, cc.render(), targetName, question, answer)
}

func snapPrompt(cc CaseContext, lastParty, lastAnswer string) string {
	return fmt.Sprintf(`%s
%s just answered: %s

Is this case already beyond doubt, such that you would end proceedings now
with a snap judgment? Trigger only for an overwhelming, dramatic reason.
Reply in exactly this format:
TRIGGER: YES or NO
WINNER: <party name, only if YES>
REASON: <one dramatic sentence, only if YES>`, cc.render(), lastParty, lastAnswer)
}

func rulingPrompt(cc CaseContext, objector, target, objType, reason, content string, prior []string) string {
	var b strings.Builder
	b.WriteString(cc.render())
	if len(prior) > 0 {
		b.WriteString("Prior objections in this case:\n")
		for _, p := range prior {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	fmt.Fprintf(&b, `
%s objects (%s) against %s: %s
Objected-to content: %s

Rule on the objection. Reply in exactly this format:
RULING: SUSTAINED or OVERRULED
REASON: <one sentence>`, objector, objType, target, reason, content)
	return b.String()
}

func verdictPrompt(cc CaseContext, snapReason string) string {
	extra := ""
	if snapReason != "" {
		extra = fmt.Sprintf("\nYou already ended proceedings early with a snap judgment because: %s\nThe verdict must honor that ruling.\n", snapReason)
	}
	return fmt.Sprintf(`%s%s
Deliver the final verdict. Reply in exactly this format:
WINNER: <party name>
SUMMARY: <2-3 sentences on each side's case>
REASON: <one decisive sentence>`, cc.render(), extra)
}

func appealPrompt(cc CaseContext, priorWinner, priorReasoning, argument string) string {
	return fmt.Sprintf(`%s
Your verdict went to %s because: %s

The losing party appeals with this argument:
%s

Only reverse for a genuinely compelling argument; appeals rarely succeed.
Reply in exactly this format:
DECISION: UPHELD or REVERSED
WINNER: <new winner, only if REVERSED>
REASON: <one sentence>`, cc.render(), priorWinner, priorReasoning, argument)
}
