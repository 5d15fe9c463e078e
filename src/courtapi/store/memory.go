package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

// Memory is an in-process store used by tests and single-player cases, where
// the engine advances purely from local state. It applies the same partial
// column maps as the MySQL store so engine code is identical against both.
type Memory struct {
	mu         sync.Mutex
	cases      map[string]*types.Case
	responses  map[string][]types.Response
	objections map[string][]types.Objection
	nextID     uint64
	watchers   []func(data.CaseEvent)
}

func NewMemory() *Memory {
	return &Memory{
		cases:      make(map[string]*types.Case),
		responses:  make(map[string][]types.Response),
		objections: make(map[string][]types.Objection),
	}
}

// OnChange registers a change observer, mirroring the stream watcher in
// multiplayer. Observers run synchronously under the store lock released.
func (s *Memory) OnChange(fn func(data.CaseEvent)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Memory) CreateCase(ctx context.Context, c *types.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *Memory) GetCaseByRoomCode(ctx context.Context, code string) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.RoomCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) GetCaseByID(ctx context.Context, id string) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Memory) UpdateCase(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	c, ok := s.cases[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := applyCaseFields(c, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	c.UpdatedAt = time.Now()
	watchers := append([]func(data.CaseEvent){}, s.watchers...)
	s.mu.Unlock()

	ev := data.CaseEvent{CaseID: id, Kind: "case_updated", Fields: fieldNames(fields)}
	for _, fn := range watchers {
		fn(ev)
	}
	return nil
}

func (s *Memory) BindPartyB(ctx context.Context, id, name, session string) error {
	s.mu.Lock()
	c, ok := s.cases[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if c.PartyBSession != "" {
		s.mu.Unlock()
		return ErrCaseFull
	}
	c.PartyBName = name
	c.PartyBSession = session
	c.Phase = types.PhaseStatements
	c.CurrentTurn = types.PartyA
	c.UpdatedAt = time.Now()
	watchers := append([]func(data.CaseEvent){}, s.watchers...)
	s.mu.Unlock()

	ev := data.CaseEvent{
		CaseID: id,
		Kind:   "case_updated",
		Fields: []string{"current_turn", "party_b_name", "party_b_session", "phase"},
	}
	for _, fn := range watchers {
		fn(ev)
	}
	return nil
}

func (s *Memory) InsertResponse(ctx context.Context, r *types.Response) error {
	s.mu.Lock()
	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Now()
	s.responses[r.CaseID] = append(s.responses[r.CaseID], *r)
	watchers := append([]func(data.CaseEvent){}, s.watchers...)
	s.mu.Unlock()

	ev := data.CaseEvent{CaseID: r.CaseID, Kind: "response_added", Actor: string(r.Party)}
	for _, fn := range watchers {
		fn(ev)
	}
	return nil
}

func (s *Memory) ListResponses(ctx context.Context, caseID string) ([]types.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Response{}, s.responses[caseID]...), nil
}

func (s *Memory) InsertObjection(ctx context.Context, o *types.Objection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	o.CreatedAt = time.Now()
	s.objections[o.CaseID] = append(s.objections[o.CaseID], *o)
	return nil
}

func (s *Memory) UpdateObjection(ctx context.Context, id uint64, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for caseID, list := range s.objections {
		for i := range list {
			if list[i].ID == id {
				applyObjectionFields(&s.objections[caseID][i], fields)
				return nil
			}
		}
	}
	return fmt.Errorf("store: objection %d not found", id)
}

func (s *Memory) ListObjections(ctx context.Context, caseID string) ([]types.Objection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Objection{}, s.objections[caseID]...), nil
}

func applyCaseFields(c *types.Case, fields map[string]any) error {
	for k, v := range fields {
		switch k {
		case "party_b_name":
			c.PartyBName = v.(string)
		case "statement_a":
			c.StatementA = v.(string)
		case "statement_b":
			c.StatementB = v.(string)
		case "party_a_session":
			c.PartyASession = v.(string)
		case "party_b_session":
			c.PartyBSession = v.(string)
		case "phase":
			c.Phase = v.(types.Phase)
		case "current_turn":
			c.CurrentTurn = v.(types.Party)
		case "exam_round":
			c.ExamRound = v.(int)
		case "exam_target":
			c.ExamTarget = v.(types.Party)
		case "current_question":
			c.CurrentQuestion = v.(string)
		case "credibility_a":
			c.CredibilityA = v.(int)
		case "credibility_b":
			c.CredibilityB = v.(int)
		case "objection_used_a":
			c.ObjectionUsedA = v.(bool)
		case "objection_used_b":
			c.ObjectionUsedB = v.(bool)
		case "verdict_winner":
			c.VerdictWinner = v.(string)
		case "verdict_loser":
			c.VerdictLoser = v.(string)
		case "verdict_summary":
			c.VerdictSummary = v.(string)
		case "verdict_reasoning":
			c.VerdictReasoning = v.(string)
		case "verdict_is_snap":
			c.VerdictIsSnap = v.(bool)
		case "snap_winner":
			c.SnapWinner = v.(string)
		case "snap_reason":
			c.SnapReason = v.(string)
		case "appealed":
			c.Appealed = v.(bool)
		default:
			return fmt.Errorf("store: unknown case column %q", k)
		}
	}
	return nil
}

func applyObjectionFields(o *types.Objection, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "ruled":
			o.Ruled = v.(bool)
		case "sustained":
			o.Sustained = v.(bool)
		case "ruling_reason":
			o.RulingReason = v.(string)
		}
	}
}
