package api

import (
	"github.com/gin-gonic/gin"
	"github.com/viktsys/b3history/config"
	"github.com/viktsys/b3history/database"
)

func SetupRoutes(store database.Store, cfg config.ServerConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	limitMB := cfg.BodyLimitMB
	if limitMB <= 0 {
		limitMB = config.DefaultBodyLimitMB
	}

	r := gin.New()
	r.Use(RequestID(), Logging("/health"), Recovery(), CORS(), BodyLimit(limitMB<<20))

	h := NewHandler(store)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/stocks_history", h.CreateHistory)
	r.GET("/stocks_history/:ticker", h.GetHistory)
	r.DELETE("/stocks_history/:ticker", h.DeleteHistory)
	r.DELETE("/stocks_history", h.DeleteAllHistory)

	r.GET("/tickers", h.ListTickers)

	return r
}
