package http

import (
	"github.com/anupakum/MCP-Payment-idea/internal/controller/http/handlers"
	"github.com/anupakum/MCP-Payment-idea/pkg/health"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"
	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	pathLive    = "/health/live"
	pathReady   = "/health/ready"
	pathMetrics = "/metrics"
)

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(logger.CorrelationMiddleware(), metrics.GinMiddleware(pathMetrics, pathLive, pathReady), logger.RequestLogger(), gin.Recovery())
	return engine
}

type Router struct {
	capability     *handlers.CapabilityHandler
	dispute        *handlers.DisputeHandler
	activity       *handlers.ActivityHandler
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	engine.GET(pathLive, health.LivenessHandler())
	engine.GET(pathReady, health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))
	engine.GET(pathMetrics, gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.GET("/capabilities", r.capability.List)
	engine.POST("/capabilities/:name", r.capability.Invoke)

	engine.POST("/disputes", r.dispute.Create)
	engine.POST("/disputes/verify", r.dispute.Verify)

	engine.GET("/cases/:case_id", r.dispute.GetCase)
	engine.PATCH("/cases/:case_id", r.dispute.UpdateCase)
	engine.POST("/cases/:case_id/outcome", r.dispute.ApplyOutcome)

	engine.GET("/customers/:customer_id", r.dispute.GetCustomer)
	engine.GET("/customers/:customer_id/cases", r.dispute.ListCustomerCases)
	engine.GET("/customers/:customer_id/cards/:card_number", r.dispute.GetCard)
	engine.GET("/transactions/:transaction_id", r.dispute.GetTransaction)

	engine.GET("/activity", r.activity.List)
	engine.GET("/activity/stats", r.activity.Stats)
	engine.DELETE("/activity", r.activity.Clear)
}

func NewRouter(
	capability *handlers.CapabilityHandler,
	dispute *handlers.DisputeHandler,
	activity *handlers.ActivityHandler,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		capability:     capability,
		dispute:        dispute,
		activity:       activity,
		healthRegistry: healthRegistry,
	}
}
