package handlers

import (
	"errors"
	"net/http"

	"github.com/earnkart/backend/internal/services/payout"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminPayoutHandler drives the payout state machine from the admin side
type AdminPayoutHandler struct {
	payoutService *payout.PayoutService
}

// NewAdminPayoutHandler creates a new admin payout handler
func NewAdminPayoutHandler(payoutService *payout.PayoutService) *AdminPayoutHandler {
	return &AdminPayoutHandler{payoutService: payoutService}
}

// CreateBatch creates payouts for all users over the minimum
func (h *AdminPayoutHandler) CreateBatch(c *gin.Context) {
	payouts, err := h.payoutService.CreatePayoutBatch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payout batch"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payouts": payouts,
		"count":   len(payouts),
	})
}

// ProcessPayoutRequest carries the external settlement reference
type ProcessPayoutRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Method        string `json:"method" binding:"required"`
}

// ProcessPayout completes a payout and marks its commissions paid
func (h *AdminPayoutHandler) ProcessPayout(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}

	var req ProcessPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	processed, err := h.payoutService.ProcessPayout(payoutID, req.TransactionID, req.Method)
	if err != nil {
		respondPayoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, processed)
}

// CancelPayoutRequest carries the failure reason
type CancelPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelPayout fails a payout and returns its commissions to the pool
func (h *AdminPayoutHandler) CancelPayout(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout id"})
		return
	}

	var req CancelPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cancelled, err := h.payoutService.CancelPayout(payoutID, req.Reason)
	if err != nil {
		respondPayoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

// ListPayouts lists all payouts across users
func (h *AdminPayoutHandler) ListPayouts(c *gin.Context) {
	page, pageSize := pagination(c)
	payouts, total, err := h.payoutService.ListPayouts(nil, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payouts":   payouts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func respondPayoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payout.ErrPayoutNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payout not found"})
	case errors.Is(err, payout.ErrPayoutNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": "payout is already settled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payout"})
	}
}
