// Exercises every judge operation against a live provider using a canned
// dispute, so prompt or parsing regressions surface before a deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/overruled-app/overruled/src/courtapi/judge"
)

var (
	providerFlag = flag.String("provider", "openai", "openai|anthropic|scripted")
	modelFlag    = flag.String("model", "", "Override model name")
	personaFlag  = flag.String("persona", "stern", "Judge persona: stern|judy|comedic")
	timeoutFlag  = flag.Duration("timeout", 45*time.Second, "Per-operation timeout")
	opsFlag      = flag.String("ops", "all", "Comma-separated ops or 'all': question,score,snap,ruling,verdict,appeal")
	maxLenFlag   = flag.Int("max-bytes", 1200, "Maximum bytes of output to print per response (0=unlimited)")
)

var allOps = []string{"question", "score", "snap", "ruling", "verdict", "appeal"}

func main() {
	log.SetFlags(0)
	flag.Parse()

	client, err := judge.NewClient(judge.FactoryConfig{
		Provider:     *providerFlag,
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:        *modelFlag,
	})
	if err != nil {
		log.Fatalf("client init: %v", err)
	}
	svc := judge.NewService(client, *personaFlag)
	cc := sampleCase()

	fmt.Printf("=== %s (%s) ===\n", *providerFlag, *personaFlag)
	for _, op := range resolveOps(*opsFlag) {
		if err := runOp(svc, cc, op); err != nil {
			fmt.Printf("%s ❌ %v\n", op, err)
		}
	}
}

func runOp(svc *judge.Service, cc judge.CaseContext, op string) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	start := time.Now()
	var out string
	var err error
	switch op {
	case "question":
		out, err = svc.NextQuestion(ctx, cc, cc.PartyAName, 0)
	case "score":
		var res judge.ScoreResult
		res, err = svc.ScoreAnswer(ctx, cc, cc.PartyAName,
			"Did you or did you not eat the leftovers?",
			"I mean, technically the container had no name on it.")
		out = fmt.Sprintf("total=%d consistency=%d evidence=%d flag=%q", res.Total(), res.Consistency, res.Evidence, res.Flag)
	case "snap":
		var res judge.SnapResult
		res, err = svc.SnapCheck(ctx, cc, cc.PartyAName, "Fine! Yes! I ate them! All of them!")
		out = fmt.Sprintf("triggered=%v winner=%q reason=%q", res.Triggered, res.WinnerName, res.Reason)
	case "ruling":
		var res judge.Ruling
		res, err = svc.RuleObjection(ctx, cc, cc.PartyBName, "Judge", "leading",
			"The question assumes guilt", "So when exactly did you decide to steal the food?", nil)
		out = fmt.Sprintf("sustained=%v reason=%q", res.Sustained, res.Reason)
	case "verdict":
		var res judge.VerdictResult
		res, err = svc.Verdict(ctx, cc, "")
		out = fmt.Sprintf("winner=%q summary=%q", res.WinnerName, res.Summary)
	case "appeal":
		var res judge.AppealResult
		res, err = svc.Appeal(ctx, cc, cc.PartyBName,
			"The defendant's account was more consistent throughout.",
			"New evidence: the leftovers were mine to begin with, I bought them.")
		out = fmt.Sprintf("reversed=%v newWinner=%q reason=%q", res.Reversed, res.NewWinner, res.Reason)
	default:
		return fmt.Errorf("unknown op")
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s ✅ (%.1fs)\n%s\n", op, time.Since(start).Seconds(), truncate(out, *maxLenFlag))
	return nil
}

func sampleCase() judge.CaseContext {
	return judge.CaseContext{
		PartyAName:   "Sam",
		PartyBName:   "Riley",
		StatementA:   "Riley ate my clearly labeled leftovers from the office fridge. Third time this month.",
		StatementB:   "The container had no label. Abandoned food after 48 hours is fair game by unwritten office law.",
		CredibilityA: 100,
		CredibilityB: 100,
		Transcript: []judge.Exchange{
			{Round: 0, Party: "Sam", Question: "Describe the container.", Answer: "Blue lid, my initials in sharpie on the side."},
		},
	}
}

func resolveOps(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return append([]string{}, allOps...)
	}
	var out []string
	seen := map[string]struct{}{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:limit]) + "...(truncated)"
}
