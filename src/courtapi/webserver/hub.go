package webserver

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/engine"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

// Hub holds one engine per (case, role) session. Each engine is the
// server-side stand-in for a connected client: it keeps the local-only
// side-state (slot markers, in-flight flags) alive across requests and
// subscribes to the case's change stream. Engines for the same case also
// nudge each other directly so single-process deployments work without
// Redis; duplicate triggers are harmless by the engine's own idempotency
// guards.
type Hub struct {
	mu      sync.Mutex
	st      store.Store
	rdb     *redis.Client
	jd      engine.Judge
	engines map[string]*engine.Engine
	cancels map[string]context.CancelFunc
}

func NewHub(st store.Store, rdb *redis.Client, jd engine.Judge) *Hub {
	return &Hub{
		st:      st,
		rdb:     rdb,
		jd:      jd,
		engines: make(map[string]*engine.Engine),
		cancels: make(map[string]context.CancelFunc),
	}
}

func hubKey(caseID string, role types.Party) string {
	return caseID + "/" + string(role)
}

// Engine returns the session engine for a case and role, rehydrating it
// from the persisted record on first touch (and on reconnect after a
// restart, which is the same thing).
func (h *Hub) Engine(ctx context.Context, caseID string, role types.Party) (*engine.Engine, error) {
	h.mu.Lock()
	if eng, ok := h.engines[hubKey(caseID, role)]; ok {
		h.mu.Unlock()
		return eng, nil
	}
	h.mu.Unlock()

	c, err := h.st.GetCaseByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	responses, err := h.st.ListResponses(ctx, caseID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	key := hubKey(caseID, role)
	if eng, ok := h.engines[key]; ok {
		return eng, nil
	}
	eng := engine.New(h.st, h.jd, role, c, responses, false)
	h.engines[key] = eng

	if h.rdb != nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		h.cancels[key] = cancel
		go data.WatchCase(watchCtx, h.rdb, caseID, func(data.CaseEvent) {
			eng.HandleChange(watchCtx)
		})
	}
	return eng, nil
}

// Nudge delivers a change to the case's other resident engines. In-process
// complement to the Redis stream; also the only delivery path when Redis is
// not configured.
func (h *Hub) Nudge(ctx context.Context, caseID string, actor types.Party) {
	h.mu.Lock()
	var others []*engine.Engine
	for _, role := range []types.Party{types.PartyA, types.PartyB} {
		if role == actor {
			continue
		}
		if eng, ok := h.engines[hubKey(caseID, role)]; ok {
			others = append(others, eng)
		}
	}
	h.mu.Unlock()
	for _, eng := range others {
		eng.HandleChange(ctx)
	}
}

// Drop tears down a case's engines and watchers once the case is terminal.
func (h *Hub) Drop(caseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, role := range []types.Party{types.PartyA, types.PartyB} {
		key := hubKey(caseID, role)
		if cancel, ok := h.cancels[key]; ok {
			cancel()
			delete(h.cancels, key)
		}
		delete(h.engines, key)
	}
}
