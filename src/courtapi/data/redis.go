package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const caseStreamPrefix = "court.case."

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// CaseEvent is one row-level change notification for a case. Fields carries
// the changed column names so receivers can reconcile selectively; the
// authoritative values are always re-read from the store, never trusted from
// the event payload.
type CaseEvent struct {
	CaseID string
	Kind   string // case_updated | response_added | objection_added
	Fields []string
	Actor  string // party that performed the write, "" for system writes
}

func caseStream(caseID string) string { return caseStreamPrefix + caseID }

// PublishCaseEvent appends a change event to the case's stream.
func PublishCaseEvent(ctx context.Context, rdb *redis.Client, ev CaseEvent) error {
	values := map[string]interface{}{
		"kind":  ev.Kind,
		"actor": ev.Actor,
	}
	if len(ev.Fields) > 0 {
		values["fields"] = joinFields(ev.Fields)
	}
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: caseStream(ev.CaseID),
		MaxLen: 1024,
		Approx: true,
		Values: values,
	}).Result()
	return err
}

// WatchCase delivers change events for one case, in stream order, until the
// context is cancelled. Errors from individual reads are logged and the loop
// continues; stalling the watcher would stall the other client's view too.
func WatchCase(ctx context.Context, rdb *redis.Client, caseID string, onChange func(CaseEvent)) {
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{caseStream(caseID), lastID},
				Count:   10,
				Block:   5 * time.Second,
			}).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					log.Printf("case watcher %s: %v", caseID, err)
				}
				continue
			}
			for _, stream := range streams {
				for _, msg := range stream.Messages {
					lastID = msg.ID
					ev := CaseEvent{CaseID: caseID}
					if kind, ok := msg.Values["kind"].(string); ok {
						ev.Kind = kind
					}
					if actor, ok := msg.Values["actor"].(string); ok {
						ev.Actor = actor
					}
					if fields, ok := msg.Values["fields"].(string); ok {
						ev.Fields = splitFields(fields)
					}
					onChange(ev)
				}
			}
		}
	}
}
