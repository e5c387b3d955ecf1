package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/service"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck probes one optional dependency
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	pos    *service.POSService
	auth   *service.AuthService
	checks []ReadinessCheck
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(pos *service.POSService, auth *service.AuthService, checks ...ReadinessCheck) *Handler {
	return &Handler{
		pos:    pos,
		auth:   auth,
		checks: checks,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/login", h.login)
	v1.GET("/products/template", h.downloadTemplate)

	authed := v1.Group("", h.requireSession())
	{
		authed.POST("/logout", h.logout)
		authed.GET("/session", h.getSession)
		authed.PUT("/session/language", h.setLanguage)

		authed.GET("/products", h.listProducts)
		authed.GET("/products/:id", h.getProduct)
		authed.GET("/products/barcode/:code", h.getProductByBarcode)

		reg := authed.Group("/registers/:register")
		reg.GET("/cart", h.getCart)
		reg.DELETE("/cart", h.clearCart)
		reg.POST("/cart/items", h.addItem)
		reg.PATCH("/cart/items/:id", h.updateItem)
		reg.DELETE("/cart/items/:id", h.removeItem)
		reg.POST("/cart/items/:id/convert", h.convertItem)
		reg.PUT("/customer", h.setCustomer)
		reg.POST("/bills", h.generateBill)

		authed.POST("/bills/:id/complete", h.completeSale)
	}

	admin := authed.Group("", requireAdmin())
	{
		admin.POST("/products", h.addProduct)
		admin.POST("/products/import", h.importProducts)

		admin.GET("/bills", h.listBills)
		admin.GET("/bills/:id", h.getBill)

		admin.GET("/reports/sales", h.salesReport)
		admin.GET("/reports/products", h.productsReport)
		admin.GET("/reports/categories", h.categoriesReport)
		admin.GET("/reports/inventory", h.inventoryReport)
		admin.GET("/reports/export.xlsx", h.exportReports)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every configured dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", check.Name), zap.Error(err))
			deps[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
