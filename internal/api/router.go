package api

import (
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"

	"github.com/sugu-inc/modern-billing/docs/swagger"
	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/rest/middleware"
)

// NewRouter mounts every v1 handler behind the same middleware chain the
// teacher applies: request-scoped role resolution, a per-IP rate limiter,
// and a single ErrorHandler translating domain errors into the
// ierr.ErrorResponse envelope (spec.md §7's error taxonomy surfaced at the
// edge). Grounded on internal/api/router.go (vidinfra-flexprice).
func NewRouter(h Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		if swagger.SwaggerInfo != nil {
			swagger.SwaggerInfo.Host = c.Request.Host
		}
		c.Next()
	})

	router.GET("/health", h.Health.Check)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.ResolveRole(), middleware.RateLimit(50, 100), middleware.ErrorHandler())
	{
		accounts := v1Group.Group("/accounts")
		{
			accounts.POST("", middleware.RequireRole("account", true), h.Account.Create)
			accounts.GET("", middleware.RequireRole("account", false), h.Account.List)
			accounts.GET("/:id", middleware.RequireRole("account", false), h.Account.Get)
			accounts.PUT("/:id", middleware.RequireRole("account", true), h.Account.Update)
			accounts.PUT("/:id/status", middleware.RequireRole("account", true), h.Account.UpdateStatus)

			accounts.POST("/:id/payment-methods", middleware.RequireRole("payment_method", true), h.PaymentMethod.Add)
			accounts.GET("/:id/payment-methods", middleware.RequireRole("payment_method", false), h.PaymentMethod.List)
			accounts.POST("/:id/payment-methods/:pm_id/default", middleware.RequireRole("payment_method", true), h.PaymentMethod.SetDefault)

			accounts.POST("/:id/credits", middleware.RequireRole("credit", true), h.Credit.Issue)
			accounts.GET("/:id/credits", middleware.RequireRole("credit", false), h.Credit.ListAvailable)
		}

		router.DELETE("/v1/payment-methods/:id", middleware.RequireRole("payment_method", true), h.PaymentMethod.Delete)

		plans := v1Group.Group("/plans")
		{
			plans.POST("", middleware.RequireRole("plan", true), h.Plan.Create)
			plans.GET("", middleware.RequireRole("plan", false), h.Plan.List)
			plans.GET("/:id", middleware.RequireRole("plan", false), h.Plan.Get)
			plans.POST("/:id/deactivate", middleware.RequireRole("plan", true), h.Plan.Deactivate)
		}

		subs := v1Group.Group("/subscriptions")
		{
			subs.POST("", middleware.RequireRole("subscription", true), h.Subscription.Create)
			subs.GET("", middleware.RequireRole("subscription", false), h.Subscription.List)
			subs.GET("/:id", middleware.RequireRole("subscription", false), h.Subscription.Get)
			subs.PATCH("/:id", middleware.RequireRole("subscription", true), h.Subscription.Update)
			subs.POST("/:id/cancel", middleware.RequireRole("subscription", true), h.Subscription.Cancel)
			subs.POST("/:id/pause", middleware.RequireRole("subscription", true), h.Subscription.Pause)
			subs.POST("/:id/resume", middleware.RequireRole("subscription", true), h.Subscription.Resume)
			subs.POST("/:id/change-plan", middleware.RequireRole("subscription", true), h.Subscription.ChangePlan)
		}

		invoices := v1Group.Group("/invoices")
		{
			invoices.GET("", middleware.RequireRole("invoice", false), h.Invoice.List)
			invoices.GET("/:id", middleware.RequireRole("invoice", false), h.Invoice.Get)
			invoices.POST("/:id/void", middleware.RequireRole("invoice", true), h.Invoice.Void)
			invoices.POST("/:invoice_id/payments", middleware.RequireRole("payment", true), h.Payment.Attempt)
		}

		payments := v1Group.Group("/payments")
		{
			payments.GET("", middleware.RequireRole("payment", false), h.Payment.List)
			payments.GET("/:id", middleware.RequireRole("payment", false), h.Payment.Get)
			payments.POST("/:id/retry", middleware.RequireRole("payment", true), h.Payment.Retry)
		}

		credits := v1Group.Group("/credits")
		{
			credits.GET("/:id", middleware.RequireRole("credit", false), h.Credit.Get)
		}

		usage := v1Group.Group("/usage")
		{
			usage.POST("", middleware.RequireRole("usage", true), h.Usage.Record)
			usage.GET("/summary", middleware.RequireRole("usage", false), h.Usage.Summary)
		}

		webhooks := v1Group.Group("/webhooks")
		{
			webhooks.POST("/endpoints", middleware.RequireRole("webhook", true), h.Webhook.RegisterEndpoint)
		}
	}

	return router
}
