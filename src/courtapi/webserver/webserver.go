package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/overruled-app/overruled/src/courtapi/config"
	"github.com/overruled-app/overruled/src/courtapi/engine"
	"github.com/overruled-app/overruled/src/courtapi/store"
)

func New(cfg config.Config, st store.Store, rdb *redis.Client, jd engine.Judge) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, st, rdb, jd)
	return g
}
