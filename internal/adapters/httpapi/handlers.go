package httpapi

import (
	"claimcore/internal/adapters/exports"
	"claimcore/internal/core"
	"claimcore/pkg/domain"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerPolicyholderRequest struct {
	Name       string  `json:"name" binding:"required"`
	Age        int     `json:"age" binding:"required"`
	PolicyType string  `json:"policy_type" binding:"required"`
	SumInsured float64 `json:"sum_insured" binding:"required"`
}

type submitClaimRequest struct {
	PolicyholderID string  `json:"policyholder_id" binding:"required"`
	ClaimAmount    float64 `json:"claim_amount" binding:"required"`
	Reason         string  `json:"reason" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type exportRequest struct {
	Report      string   `json:"report" binding:"required"`
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err), domain.IsRuleViolation(err):
		status = http.StatusBadRequest
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, exports.ErrQueueFull):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// RegisterPolicyholder handles POST /api/policyholders.
func (h *Handler) RegisterPolicyholder(c *gin.Context) {
	var req registerPolicyholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.RegisterPolicyholder(c.Request.Context(), req.Name, req.Age, core.PolicyType(req.PolicyType), req.SumInsured)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GetPolicyholder handles GET /api/policyholders/:id.
func (h *Handler) GetPolicyholder(c *gin.Context) {
	holder, err := h.svc.GetPolicyholder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, holder)
}

// ClaimFrequency handles GET /api/policyholders/:id/claim_frequency.
func (h *Handler) ClaimFrequency(c *gin.Context) {
	id := c.Param("id")
	count, err := h.svc.ClaimFrequency(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policyholder_id": id, "claim_count": count})
}

// SubmitClaim handles POST /api/claims.
func (h *Handler) SubmitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.SubmitClaim(c.Request.Context(), req.PolicyholderID, req.ClaimAmount, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GetClaim handles GET /api/claims/:id.
func (h *Handler) GetClaim(c *gin.Context) {
	detail, err := h.svc.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateClaimStatus handles PUT /api/claims/:id/status.
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := h.svc.UpdateClaimStatus(c.Request.Context(), id, core.ClaimStatus(req.Status)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "claim " + id + " updated to " + req.Status})
}

func (h *Handler) HighRisk(c *gin.Context) {
	entries, err := h.svc.HighRiskPolicyholders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) MonthlyClaims(c *gin.Context) {
	counts, err := h.svc.MonthlyClaims(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) AvgClaimAmount(c *gin.Context) {
	avgs, err := h.svc.AvgClaimAmountByPolicyType(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, avgs)
}

// HighestClaim responds with {} when no claim is Approved.
func (h *Handler) HighestClaim(c *gin.Context) {
	summary, ok, err := h.svc.HighestClaim(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) PendingClaims(c *gin.Context) {
	pending, err := h.svc.PendingClaims(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

func (h *Handler) ClaimsByPolicyType(c *gin.Context) {
	counts, err := h.svc.ClaimsByPolicyType(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// EnqueueExport handles POST /api/exports.
func (h *Handler) EnqueueExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	formats := make([]exports.Format, 0, len(req.Formats))
	for _, f := range req.Formats {
		formats = append(formats, exports.Format(f))
	}
	record, err := h.exports.EnqueueExport(c.Request.Context(), exports.Input{
		Report:      exports.Report(req.Report),
		Formats:     formats,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, record)
}

// GetExport handles GET /api/exports/:id.
func (h *Handler) GetExport(c *gin.Context) {
	record, ok := h.exports.GetExport(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "export " + c.Param("id") + " not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}
