package service

import (
	"net/http"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusProvider снимки сессий для /positions и /healthz.
type StatusProvider interface {
	Status() []models.SessionStatus
	Summary() router.Summary
	Paused() bool
}

func NewEngine(state *State, sp StatusProvider, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/readyz", func(c *gin.Context) {
		if !state.Ready() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	r.GET("/healthz", func(c *gin.Context) {
		sum := sp.Summary()
		var lastBar int64
		if t := state.LastBar(); !t.IsZero() {
			lastBar = t.Unix()
		}
		c.JSON(http.StatusOK, gin.H{
			"ready":          state.Ready(),
			"feedConnected":  state.FeedConnected(),
			"uptimeSec":      int64(state.Uptime().Seconds()),
			"lastBarUnix":    lastBar,
			"paused":         sp.Paused(),
			"openPositions":  sum.Open,
			"haltedSessions": sum.Halted,
			"realizedPnl":    sum.RealizedPnL,
		})
	})

	r.GET("/positions", func(c *gin.Context) {
		c.JSON(http.StatusOK, sp.Status())
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
