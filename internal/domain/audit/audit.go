// Package audit stores an append-only trail of catalog mutations.
package audit

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"nomina/internal/platform/db"
	"nomina/internal/platform/querier"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorID    *int64          `json:"actorId,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is a mutation to record. A zero ActorID is stored as NULL.
type Entry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    int64
}

type Recorder interface {
	Log(ctx context.Context, e Entry)
}

type Service struct {
	DB     querier.Querier
	Logger *zap.Logger
}

func New(db querier.Querier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{DB: db, Logger: log}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	beforeJSON, err := marshal(e.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(e.After)
	if err != nil {
		return err
	}
	var actor any
	if e.ActorID != 0 {
		actor = e.ActorID
	}

	query, args, err := db.Psql.Insert("audit_events").
		Columns("actor_user_id", "action", "entity_type", "entity_id", "before_json", "after_json", "request_id", "ip").
		Values(actor, e.Action, e.EntityType, e.EntityID, beforeJSON, afterJSON, e.RequestID, e.IP).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, query, args...)
	return err
}

// Log records the entry and only logs a failure; the audited operation has
// already committed.
func (s *Service) Log(ctx context.Context, e Entry) {
	if err := s.Record(ctx, e); err != nil {
		s.Logger.Error("audit record failed",
			zap.Error(err),
			zap.String("action", e.Action),
			zap.String("entityType", e.EntityType),
			zap.String("entityId", e.EntityID),
			zap.String("requestId", e.RequestID),
		)
	}
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, int, error) {
	where := filter.where()

	query, args, err := db.Psql.Select("COUNT(1)").From("audit_events").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err = db.Psql.Select(
		"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip",
		"created_at", "before_json", "after_json",
	).From("audit_events").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		var before, after []byte
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID,
			&evt.RequestID, &evt.IP, &evt.CreatedAt, &before, &after); err != nil {
			return nil, 0, err
		}
		evt.Before, evt.After = before, after
		out = append(out, evt)
	}
	return out, total, rows.Err()
}

func (f Filter) where() sq.And {
	where := sq.And{}
	if f.Action != "" {
		where = append(where, sq.Eq{"action": f.Action})
	}
	if f.EntityType != "" {
		where = append(where, sq.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != "" {
		where = append(where, sq.Eq{"entity_id": f.EntityID})
	}
	if f.ActorID != 0 {
		where = append(where, sq.Eq{"actor_user_id": f.ActorID})
	}
	return where
}

func marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
