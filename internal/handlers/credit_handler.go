package handlers

import (
	"errors"
	"net/http"

	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/credits"
	"github.com/gin-gonic/gin"
)

// CreditHandler handles credit-ledger requests
type CreditHandler struct {
	creditService *credits.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *credits.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetBalance gets the authenticated user's credit balance
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.creditService.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load credit balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetHistory gets the authenticated user's credit ledger rows
func (h *CreditHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	rows, total, err := h.creditService.History(userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load credit history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": rows,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// RedeemRequest spends credits. IdempotencyKey makes retries safe.
type RedeemRequest struct {
	Amount         int    `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// Redeem spends credits from the authenticated user's balance
func (h *CreditHandler) Redeem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.creditService.Debit(userID, req.Amount, models.CreditReasonRedemption, nil, req.IdempotencyKey)
	if err != nil {
		var insufficient *credits.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "insufficient credits",
				"balance": insufficient.Balance,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem credits"})
		return
	}

	c.JSON(http.StatusOK, row)
}
