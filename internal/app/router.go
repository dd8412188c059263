// internal/app/router.go
package app

import (
	billingHandler "subpay-service/internal/handlers/billing"
	planHandler "subpay-service/internal/handlers/plans"
	settlementHandler "subpay-service/internal/handlers/settlement"
	subscriptionHandler "subpay-service/internal/handlers/subscription"
	"subpay-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	PlanHandler         *planHandler.PlanHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	BillingHandler      *billingHandler.BillingHandler
	SettlementHandler   *settlementHandler.SettlementHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Plans ====================
	plans := api.Group("/plans")
	{
		// Public endpoints - no auth required
		plans.GET("", h.PlanHandler.ListActivePlans)
		plans.GET("/:id", h.PlanHandler.GetPlan)

		// Provider administration
		plansAdmin := plans.Group("")
		plansAdmin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireProvider())
		{
			plansAdmin.POST("", h.PlanHandler.CreatePlan)
			plansAdmin.PATCH("/:id", h.PlanHandler.UpdatePlan)
			plansAdmin.POST("/:id/deactivate", h.PlanHandler.DeactivatePlan)
		}
	}

	// ==================== Subscriptions ====================
	// Ledger records are readable by anyone, like the rest of the views.
	api.GET("/subscriptions/:account_id", h.SubscriptionHandler.GetSubscription)

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(h.AuthMiddleware.Auth())
	{
		subscriptions.POST("", h.SubscriptionHandler.Enroll)
		subscriptions.DELETE("", h.SubscriptionHandler.Cancel)
		subscriptions.POST("/payments", h.SubscriptionHandler.Pay)
		subscriptions.GET("/me", h.SubscriptionHandler.GetMySubscription)
	}

	// ==================== Billing Info ====================
	billing := api.Group("/billing")
	{
		billing.GET("/provider", h.BillingHandler.GetProvider)
		billing.GET("/fee", h.BillingHandler.GetFeeRate)
		billing.GET("/storage", h.BillingHandler.GetStorageFootprint)
	}

	// ==================== Settlements ====================
	settlements := api.Group("/settlements")
	settlements.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireProvider())
	{
		settlements.GET("", h.SettlementHandler.ListInstructions)
		settlements.POST("/redrive", h.SettlementHandler.Redrive)
	}

	// ==================== WebSocket ====================
	ws := r.Group("/ws")
	ws.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireProvider())
	{
		ws.GET("/settlements", h.SettlementHandler.StreamEvents)
	}
}
