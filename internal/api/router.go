package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nikolayk812/fulfillment/internal/metrics"
	"github.com/nikolayk812/fulfillment/internal/port"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type handler struct {
	svc      port.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRouter registers the order API, health and metrics endpoints.
func NewRouter(svc port.OrderService, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	h := &handler{
		svc:      svc,
		validate: newValidator(),
		logger:   logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), observe(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	orders := r.Group("/api/orders")
	{
		orders.GET("", h.listOrders)
		orders.POST("", h.createOrder)
		orders.GET("/number/:orderNumber", h.getOrderByNumber)
		orders.GET("/customer/:customerId", h.listCustomerOrders)
		orders.GET("/:id", h.getOrder)
		orders.GET("/:id/total", h.getOrderTotal)
		orders.POST("/:id/items", h.addItem)
		orders.PUT("/:id/items/:itemId", h.updateItem)
		orders.DELETE("/:id/items/:itemId", h.removeItem)
		orders.POST("/:id/finalize", h.finalizeOrder)
		orders.POST("/:id/cancel", h.cancelOrder)
	}

	return r
}

// observe records request count and latency per route template.
func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.ObserveHTTP(route, c.Writer.Status(), time.Since(start))
	}
}
