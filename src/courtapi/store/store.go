// Package store is the case record store: the single source of truth that
// both clients' engines converge on. Mutations are single atomic field-set
// operations scoped to one case id; there is no partial update and no
// distributed locking on top of it.
package store

import (
	"context"
	"errors"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

var (
	// ErrNotFound distinguishes a bad or expired room code from generic
	// failure; callers surface it as its own user-facing state.
	ErrNotFound = errors.New("store: case not found")
	// ErrCaseFull is returned when joining a case that already has both
	// parties bound.
	ErrCaseFull = errors.New("store: case already has two parties")
)

// Store is the persistence contract consumed by the engine and the web
// layer. The MySQL implementation is authoritative in multiplayer; the
// memory implementation backs tests and single-player cases.
type Store interface {
	CreateCase(ctx context.Context, c *types.Case) error
	GetCaseByRoomCode(ctx context.Context, code string) (*types.Case, error)
	GetCaseByID(ctx context.Context, id string) (*types.Case, error)
	// UpdateCase applies a partial column map to one case as a single
	// atomic write.
	UpdateCase(ctx context.Context, id string, fields map[string]any) error
	// BindPartyB claims the open party B slot and fires the
	// waiting→statements transition. The write is conditional on the slot
	// still being empty, so two racing joins resolve in the store: the
	// loser gets ErrCaseFull.
	BindPartyB(ctx context.Context, id, name, session string) error

	InsertResponse(ctx context.Context, r *types.Response) error
	// ListResponses returns testimony in creation order, the canonical
	// order of the transcript.
	ListResponses(ctx context.Context, caseID string) ([]types.Response, error)

	InsertObjection(ctx context.Context, o *types.Objection) error
	UpdateObjection(ctx context.Context, id uint64, fields map[string]any) error
	ListObjections(ctx context.Context, caseID string) ([]types.Objection, error)
}
