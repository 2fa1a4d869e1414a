// Package httpapi exposes the claimcore service over HTTP using gin.
package httpapi

import (
	"claimcore/docs/schema/openapi"
	"claimcore/internal/adapters/exports"
	"claimcore/internal/core"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ClaimService is the subset of *core.Service served over HTTP.
type ClaimService interface {
	RegisterPolicyholder(ctx context.Context, name string, age int, policyType core.PolicyType, sumInsured float64) (string, error)
	GetPolicyholder(ctx context.Context, id string) (core.Policyholder, error)
	ClaimFrequency(ctx context.Context, policyholderID string) (int, error)
	SubmitClaim(ctx context.Context, policyholderID string, amount float64, reason string) (string, error)
	GetClaim(ctx context.Context, id string) (core.ClaimDetail, error)
	UpdateClaimStatus(ctx context.Context, claimID string, status core.ClaimStatus) error
	HighRiskPolicyholders(ctx context.Context) ([]core.RiskEntry, error)
	MonthlyClaims(ctx context.Context) (map[string]int, error)
	AvgClaimAmountByPolicyType(ctx context.Context) (map[core.PolicyType]float64, error)
	HighestClaim(ctx context.Context) (core.ClaimSummary, bool, error)
	PendingClaims(ctx context.Context) ([]core.ClaimSummary, error)
	ClaimsByPolicyType(ctx context.Context) (map[core.PolicyType]int, error)
}

// Option configures the router.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics registers HTTP collectors with reg and serves gatherer on /metrics.
func WithMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.registerer = reg
		h.gatherer = gatherer
	}
}

// WithExports mounts the report export routes.
func WithExports(s exports.Scheduler) Option {
	return func(h *Handler) { h.exports = s }
}

// Handler holds the collaborators shared by the route handlers.
type Handler struct {
	svc        ClaimService
	exports    exports.Scheduler
	logger     *zap.Logger
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc ClaimService, opts ...Option) (*gin.Engine, error) {
	h := &Handler{svc: svc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	if h.registerer != nil {
		m, err := newHTTPMetrics(h.registerer)
		if err != nil {
			return nil, err
		}
		router.Use(m.middleware())
	}
	h.RegisterRoutes(router)
	return router, nil
}

// RegisterRoutes binds the handler methods to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/openapi.yaml", func(c *gin.Context) { c.Data(http.StatusOK, "application/yaml", openapi.Spec()) })
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/policyholders", h.RegisterPolicyholder)
		api.GET("/policyholders/:id", h.GetPolicyholder)
		api.GET("/policyholders/:id/claim_frequency", h.ClaimFrequency)
		api.POST("/claims", h.SubmitClaim)
		api.GET("/claims/:id", h.GetClaim)
		api.PUT("/claims/:id/status", h.UpdateClaimStatus)
	}
	reports := api.Group("/reports")
	{
		reports.GET("/high_risk", h.HighRisk)
		reports.GET("/monthly_claims", h.MonthlyClaims)
		reports.GET("/avg_claim_amount", h.AvgClaimAmount)
		reports.GET("/highest_claim", h.HighestClaim)
		reports.GET("/pending_claims", h.PendingClaims)
		reports.GET("/claims_by_policy_type", h.ClaimsByPolicyType)
	}
	if h.exports != nil {
		api.POST("/exports", h.EnqueueExport)
		api.GET("/exports/:id", h.GetExport)
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
