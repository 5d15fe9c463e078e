// Exercises the MySQL store and the Redis change stream together: writes a
// throwaway case and confirms the change event comes back on the stream.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

func main() {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "dev:test@tcp(localhost:3306)/overruled"
	}
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://127.0.0.1:6379/0"
	}

	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	rdb := data.MustRedis(redisURL)
	defer rdb.Close()

	st := store.NewMySQL(db, rdb)
	ctx := context.Background()

	c := &types.Case{
		ID:           uuid.NewString(),
		RoomCode:     "ZZTEST",
		PartyAName:   "storage-check",
		Phase:        types.PhaseWaiting,
		CredibilityA: types.InitialCredibility,
		CredibilityB: types.InitialCredibility,
	}
	if err := st.CreateCase(ctx, c); err != nil {
		log.Fatalf("create case: %v", err)
	}
	log.Printf("created case %s", c.ID)

	events := make(chan data.CaseEvent, 1)
	watchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	go data.WatchCase(watchCtx, rdb, c.ID, func(ev data.CaseEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	time.Sleep(500 * time.Millisecond) // let the watcher attach past "$"

	if err := st.UpdateCase(ctx, c.ID, map[string]any{"phase": types.PhaseStatements}); err != nil {
		log.Fatalf("update case: %v", err)
	}

	select {
	case ev := <-events:
		log.Printf("stream event: kind=%s fields=%v", ev.Kind, ev.Fields)
	case <-watchCtx.Done():
		log.Fatal("no change event arrived on the stream")
	}

	got, err := st.GetCaseByID(ctx, c.ID)
	if err != nil {
		log.Fatalf("read back: %v", err)
	}
	if got.Phase != types.PhaseStatements {
		log.Fatalf("phase: want %s got %s", types.PhaseStatements, got.Phase)
	}
	log.Printf("✓ storage and change stream OK")
}
