package handlers

import (
	"errors"
	"net/http"

	"github.com/earnkart/backend/internal/models"
	"github.com/earnkart/backend/internal/services/payment"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseHandler handles the package catalog and purchases
type PurchaseHandler struct {
	db             *gorm.DB
	paymentService *payment.PaymentService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(db *gorm.DB, paymentService *payment.PaymentService) *PurchaseHandler {
	return &PurchaseHandler{db: db, paymentService: paymentService}
}

// ListPackages lists the active package catalog
func (h *PurchaseHandler) ListPackages(c *gin.Context) {
	var packages []models.Package
	if err := h.db.Where("is_active = ?", true).Order("tier").Find(&packages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// CreatePurchaseRequest starts a package purchase
type CreatePurchaseRequest struct {
	PackageID     uuid.UUID `json:"package_id" binding:"required"`
	PayWithWallet bool      `json:"pay_with_wallet"`
}

// CreatePurchase records a purchase. With pay_with_wallet the wallet is
// debited and the purchase completes in the same call; otherwise it stays
// pending until the payment gateway confirms.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchase, err := h.paymentService.CreatePurchase(userID, req.PackageID, req.PayWithWallet)
	if err != nil {
		var insufficient *wallet.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "insufficient balance",
				"balance": insufficient.Balance,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create purchase"})
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

// GetCurrentPackage returns the user's active package, if any
func (h *PurchaseHandler) GetCurrentPackage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	pkg, err := h.paymentService.GetUserCurrentPackage(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load package"})
		return
	}
	if pkg == nil {
		c.JSON(http.StatusOK, gin.H{"package": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"package": pkg})
}
