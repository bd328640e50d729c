package handlers

import (
	"net/http"

	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/payout"
	"github.com/gin-gonic/gin"
)

// ReferralHandler handles commission and earnings views
type ReferralHandler struct {
	payoutService *payout.PayoutService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(payoutService *payout.PayoutService) *ReferralHandler {
	return &ReferralHandler{payoutService: payoutService}
}

// GetCommissions lists the authenticated user's commissions, optionally
// filtered with ?status=pending|processing|paid|cancelled.
func (h *ReferralHandler) GetCommissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status := models.CommissionStatus(c.Query("status"))
	switch status {
	case "", models.CommissionStatusPending, models.CommissionStatusProcessing,
		models.CommissionStatusPaid, models.CommissionStatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	commissions, err := h.payoutService.ListCommissions(userID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load commissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"commissions": commissions})
}

// GetSummary returns the user's pending-amount block
func (h *ReferralHandler) GetSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.payoutService.GetPendingSummary(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
