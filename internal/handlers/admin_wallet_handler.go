package handlers

import (
	"errors"
	"net/http"

	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminWalletHandler lets admins adjust user wallets with a full audit trail
type AdminWalletHandler struct {
	walletService *wallet.WalletService
}

// NewAdminWalletHandler creates a new admin wallet handler
func NewAdminWalletHandler(walletService *wallet.WalletService) *AdminWalletHandler {
	return &AdminWalletHandler{walletService: walletService}
}

// AdjustRequest is an admin credit or debit
type AdjustRequest struct {
	Type        string  `json:"type" binding:"required,oneof=credit debit"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
}

// Adjust credits or debits a user's wallet with source=admin
func (h *AdminWalletHandler) Adjust(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userWallet, err := h.walletService.GetOrCreateWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	var transaction *models.WalletTransaction
	if req.Type == "credit" {
		transaction, err = h.walletService.Credit(userWallet.ID, req.Amount, models.TransactionSourceAdmin, req.Description, nil)
	} else {
		transaction, err = h.walletService.Debit(userWallet.ID, req.Amount, models.TransactionSourceAdmin, req.Description, nil)
	}
	if err != nil {
		var insufficient *wallet.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "insufficient balance",
				"balance": insufficient.Balance,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to adjust wallet"})
		return
	}

	c.JSON(http.StatusOK, transaction)
}
