package routes

import (
	"github.com/earnkart/backend/internal/handlers"
	"github.com/earnkart/backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything SetupRoutes wires up
type Handlers struct {
	Auth        *handlers.AuthHandler
	Wallet      *handlers.WalletHandler
	Credit      *handlers.CreditHandler
	Referral    *handlers.ReferralHandler
	Payout      *handlers.PayoutHandler
	Purchase    *handlers.PurchaseHandler
	AdminPayout *handlers.AdminPayoutHandler
	AdminWallet *handlers.AdminWalletHandler
}

// SetupRoutes registers all API routes
func SetupRoutes(router *gin.Engine, h Handlers, rateLimiter *middleware.RateLimiter) {
	auth := router.Group("/api/auth")
	auth.Use(rateLimiter.Middleware())
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/wallet", h.Wallet.GetWallet)
		api.GET("/wallet/transactions", h.Wallet.GetTransactions)

		api.GET("/credits", h.Credit.GetBalance)
		api.GET("/credits/history", h.Credit.GetHistory)
		api.POST("/credits/redeem", h.Credit.Redeem)

		api.GET("/referrals/commissions", h.Referral.GetCommissions)
		api.GET("/referrals/summary", h.Referral.GetSummary)

		api.GET("/payouts", h.Payout.ListPayouts)
		api.GET("/payouts/pending-amount", h.Payout.GetPendingAmount)
		api.POST("/payouts/request", h.Payout.RequestPayout)

		api.GET("/packages", h.Purchase.ListPackages)
		api.GET("/packages/current", h.Purchase.GetCurrentPackage)
		api.POST("/purchases", h.Purchase.CreatePurchase)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/payouts", h.AdminPayout.ListPayouts)
		admin.POST("/payouts/batch", h.AdminPayout.CreateBatch)
		admin.POST("/payouts/:id/process", h.AdminPayout.ProcessPayout)
		admin.POST("/payouts/:id/cancel", h.AdminPayout.CancelPayout)
		admin.POST("/wallets/:user_id/adjust", h.AdminWallet.Adjust)
	}
}
