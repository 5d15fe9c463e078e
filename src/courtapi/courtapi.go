// File: src/courtapi/courtapi.go

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/overruled-app/overruled/src/courtapi/config"
	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/webserver"
)

func main() {
	// Connect to database first
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "dev:test@tcp(localhost:3306)/overruled"
	}
	db := data.MustMySQL(mysqlDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := data.EnsureDefaultSettings(db); err != nil {
		log.Printf("Failed to seed settings: %v", err)
	}

	// Load config with database settings as fallback
	cfg := config.Load(db)
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	rdb := data.MustRedis(cfg.RedisURL)

	client, err := judge.NewClient(judge.FactoryConfig{
		Provider:     cfg.JudgeProvider,
		OpenAIKey:    cfg.OpenAIKey,
		AnthropicKey: cfg.AnthropicKey,
		Model:        cfg.JudgeModel,
	})
	if err != nil {
		log.Fatalf("judge client: %v", err)
	}
	jd := judge.NewService(client, cfg.JudgePersona)

	st := store.NewMySQL(db, rdb)
	router := webserver.New(cfg, st, rdb, jd)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("Overruled API listening on %s (judge: %s/%s)", cfg.Port, cfg.JudgeProvider, cfg.JudgePersona)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
