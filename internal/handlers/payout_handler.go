package handlers

import (
	"errors"
	"net/http"

	"github.com/earnkart/backend/internal/services/payout"
	"github.com/gin-gonic/gin"
)

// PayoutHandler handles user-facing payout requests
type PayoutHandler struct {
	payoutService *payout.PayoutService
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payoutService *payout.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// GetPendingAmount returns the authenticated user's pending-amount block
func (h *PayoutHandler) GetPendingAmount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.payoutService.GetPendingSummary(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending amount"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RequestPayout creates a payout over the user's pending commissions
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	created, err := h.payoutService.RequestPayout(userID)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrBelowMinimumPayout):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "pending commissions below minimum payout amount"})
		case errors.Is(err, payout.ErrOpenPayoutExists):
			c.JSON(http.StatusConflict, gin.H{"error": "a payout is already in progress"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payout"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPayouts lists the authenticated user's payouts
func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	payouts, total, err := h.payoutService.ListPayouts(&userID, page, pageSize)
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
