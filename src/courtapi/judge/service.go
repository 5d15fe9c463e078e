package judge

import (
	"context"
	"fmt"
	"strings"
)

// Service exposes the typed judge operations the engine consumes. It owns
// prompt construction and response parsing; callers only see parsed results
// with defaults already applied where parsing failed.
type Service struct {
	client  Client
	persona string
}

func NewService(client Client, persona string) *Service {
	return &Service{client: client, persona: persona}
}

func (s *Service) opts() Options {
	return Options{SystemPrompt: PersonaPrompt(s.persona)}
}

// NextQuestion produces the cross-examination question for a target and
// round. Errors and empty responses propagate so the engine can substitute
// its deterministic fallback.
func (s *Service) NextQuestion(ctx context.Context, cc CaseContext, targetName string, round int) (string, error) {
	raw, err := s.client.Respond(ctx, questionPrompt(cc, targetName, round), s.opts())
	if err != nil {
		return "", err
	}
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", fmt.Errorf("judge: empty question")
	}
	// Some models wrap the question in quotes despite instructions.
	return strings.Trim(q, "\"'"), nil
}

// ScoreAnswer evaluates one answer. On call failure the zero ScoreResult is
// returned with the error; the engine applies zero delta and continues.
func (s *Service) ScoreAnswer(ctx context.Context, cc CaseContext, targetName, question, answer string) (ScoreResult, error) {
	raw, err := s.client.Respond(ctx, scorePrompt(cc, targetName, question, answer), s.opts())
	if err != nil {
		return ScoreResult{}, err
	}
	return ParseScore(raw), nil
}

// SnapCheck asks whether proceedings should end early. A failed check is
// indistinguishable from "not triggered" by design.
func (s *Service) SnapCheck(ctx context.Context, cc CaseContext, lastParty, lastAnswer string) (SnapResult, error) {
	raw, err := s.client.Respond(ctx, snapPrompt(cc, lastParty, lastAnswer), s.opts())
	if err != nil {
		return SnapResult{}, err
	}
	return ParseSnap(raw, cc.PartyAName, cc.PartyBName), nil
}

// RuleObjection rules sustained/overruled. Failure defaults to overruled.
func (s *Service) RuleObjection(ctx context.Context, cc CaseContext, objector, target, objType, reason, content string, prior []string) (Ruling, error) {
	raw, err := s.client.Respond(ctx, rulingPrompt(cc, objector, target, objType, reason, content, prior), s.opts())
	if err != nil {
		return Ruling{}, err
	}
	return ParseRuling(raw), nil
}

// Verdict produces the full verdict; snapReason is non-empty when a snap
// judgment preceded it and must be honored.
func (s *Service) Verdict(ctx context.Context, cc CaseContext, snapReason string) (VerdictResult, error) {
	raw, err := s.client.Respond(ctx, verdictPrompt(cc, snapReason), s.opts())
	if err != nil {
		return VerdictResult{}, err
	}
	return ParseVerdict(raw, cc.PartyAName, cc.PartyBName), nil
}

// Appeal rules on a free-text appeal argument; anything unparseable comes
// back as upheld.
func (s *Service) Appeal(ctx context.Context, cc CaseContext, priorWinner, priorReasoning, argument string) (AppealResult, error) {
	raw, err := s.client.Respond(ctx, appealPrompt(cc, priorWinner, priorReasoning, argument), s.opts())
	if err != nil {
		return AppealResult{}, err
	}
	return ParseAppeal(raw, cc.PartyAName, cc.PartyBName), nil
}
