// Package api exposes the scoring pipeline over HTTP.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fraudscore/internal"
	"fraudscore/internal/telemetry"
)

// RouterConfig holds the HTTP layer settings
type RouterConfig struct {
	GinMode     string
	CORSOrigins []string
}

// NewRouter wires the endpoints and middleware
func NewRouter(config RouterConfig, h *Handler, logger *internal.Logger) *gin.Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger.WithComponent("HTTP")))
	router.Use(telemetry.Middleware())
	router.Use(CORS(config.CORSOrigins))

	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics)
	router.GET("/transactions", h.Transactions)
	router.POST("/predict", h.Predict)
	router.POST("/explain", h.Explain)
	router.GET("/runs", h.Runs)
	router.GET("/internal/metrics", telemetry.Handler())

	return router
}

// RequestLogger logs one line per request
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// CORS allows the configured origins; "*" allows any origin
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
