package store

import (
	"context"
	"log"
	"sort"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MySQL is the production store. Every successful mutation publishes a
// change event to the case's stream so the other participant's engine can
// advance; publish failures are logged and do not fail the write, because
// the written row remains authoritative and is re-read on reconnect.
type MySQL struct {
	db  *gorm.DB
	rdb *redis.Client // nil disables change publication (single-process runs)
}

func NewMySQL(db *gorm.DB, rdb *redis.Client) *MySQL {
	return &MySQL{db: db, rdb: rdb}
}

func (s *MySQL) CreateCase(ctx context.Context, c *types.Case) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *MySQL) GetCaseByRoomCode(ctx context.Context, code string) (*types.Case, error) {
	var c types.Case
	err := s.db.WithContext(ctx).First(&c, "room_code = ?", code).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MySQL) GetCaseByID(ctx context.Context, id string) (*types.Case, error) {
	var c types.Case
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MySQL) UpdateCase(ctx context.Context, id string, fields map[string]any) error {
	if err := s.db.WithContext(ctx).Model(&types.Case{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return err
	}
	s.publish(ctx, data.CaseEvent{CaseID: id, Kind: "case_updated", Fields: fieldNames(fields)})
	return nil
}

func (s *MySQL) BindPartyB(ctx context.Context, id, name, session string) error {
	fields := map[string]any{
		"party_b_name":    name,
		"party_b_session": session,
		"phase":           types.PhaseStatements,
		"current_turn":    types.PartyA,
	}
	res := s.db.WithContext(ctx).Model(&types.Case{}).
		Where("id = ? AND party_b_session = ''", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCaseFull
	}
	s.publish(ctx, data.CaseEvent{CaseID: id, Kind: "case_updated", Fields: fieldNames(fields)})
	return nil
}

func (s *MySQL) InsertResponse(ctx context.Context, r *types.Response) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return err
	}
	s.publish(ctx, data.CaseEvent{CaseID: r.CaseID, Kind: "response_added", Actor: string(r.Party)})
	return nil
}

func (s *MySQL) ListResponses(ctx context.Context, caseID string) ([]types.Response, error) {
	var out []types.Response
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at asc, id asc").Find(&out).Error
	return out, err
}

func (s *MySQL) InsertObjection(ctx context.Context, o *types.Objection) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return err
	}
	s.publish(ctx, data.CaseEvent{CaseID: o.CaseID, Kind: "objection_added", Actor: string(o.Objector)})
	return nil
}

func (s *MySQL) UpdateObjection(ctx context.Context, id uint64, fields map[string]any) error {
	return s.db.WithContext(ctx).Model(&types.Objection{}).Where("id = ?", id).Updates(fields).Error
}

func (s *MySQL) ListObjections(ctx context.Context, caseID string) ([]types.Objection, error) {
	var out []types.Objection
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at asc, id asc").Find(&out).Error
	return out, err
}

func (s *MySQL) publish(ctx context.Context, ev data.CaseEvent) {
	if s.rdb == nil {
		return
	}
	if err := data.PublishCaseEvent(ctx, s.rdb, ev); err != nil {
		log.Printf("publish case event %s/%s: %v", ev.CaseID, ev.Kind, err)
	}
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
