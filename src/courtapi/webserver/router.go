package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/overruled-app/overruled/src/courtapi/config"
	"github.com/overruled-app/overruled/src/courtapi/engine"
	"github.com/overruled-app/overruled/src/courtapi/store"
)

func attachRoutes(r *gin.Engine, cfg config.Config, st store.Store, rdb *redis.Client, jd engine.Judge) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	hub := NewHub(st, rdb, jd)
	casesH := NewCases(st, rdb, hub, []byte(cfg.JWTSecret))

	v1 := r.Group("/v1")
	{
		v1.POST("/cases", casesH.Create)
		v1.POST("/cases/join", casesH.Join)

		secured := v1.Use(SessionMiddleware([]byte(cfg.JWTSecret)))
		secured.GET("/cases/:id", casesH.Get)
		secured.POST("/cases/:id/statement", casesH.Statement)
		secured.POST("/cases/:id/answer", casesH.Answer)
		secured.POST("/cases/:id/continue", casesH.ContinueSnap)
		secured.POST("/cases/:id/objection", casesH.Objection)
		secured.POST("/cases/:id/appeal", casesH.Appeal)
		secured.POST("/cases/:id/typing", casesH.Typing)
		secured.GET("/cases/:id/typing/stream", casesH.TypingStream)
	}
}
