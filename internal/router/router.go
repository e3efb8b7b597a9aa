// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hallbook/auditorium-booking/internal/config"
	"github.com/hallbook/auditorium-booking/internal/handler"
	"github.com/hallbook/auditorium-booking/internal/middleware"
	"github.com/hallbook/auditorium-booking/internal/model"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Booking *handler.BookingHandler
	Review  *handler.ReviewHandler
	Payment *handler.PaymentHandler
	Share   *handler.ShareLinkHandler
	Report  *handler.ReportHandler
}

// Register wires up all routes.  Three surfaces exist:
//
//	/healthz and /v1/auth/*   – unauthenticated
//	/v1/share/:token/*        – token-authenticated (share links)
//	/v1/bookings, /v1/reports – JWT-authenticated, role-gated per route
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Rate limiting applies to everything below; the limiter fails open
	// when Redis is unreachable.
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Auth: no session required except for /me and /logout.
	ag := e.Group("/v1/auth", rl)
	ag.POST("/register", h.Auth.Register)
	ag.POST("/login", h.Auth.Login)
	ag.POST("/refresh", h.Auth.Refresh)

	session := e.Group("/v1/auth", rl, middleware.JWTAuth(cfg.JWTSecret))
	session.GET("/me", h.Auth.Me)
	session.POST("/logout", h.Auth.Logout)

	// Share links: the token in the path is the only credential.
	sg := e.Group("/v1/share", rl)
	sg.GET("/:token", h.Share.Resolve)
	sg.POST("/:token/complete", h.Share.CompleteStage)
	sg.POST("/:token/cancel", h.Share.CancelStage)

	// Everything below requires a valid access token from one of the
	// three workflow roles.  Per-route role gates are the coarse outer
	// check; the workflow engine re-validates the actor on every call.
	api := e.Group("/v1", rl, middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleRecommendation, model.RoleApproval))

	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Bookings: reads for every role, lifecycle mutations admin-only.
	api.GET("/bookings", h.Booking.List)
	api.GET("/bookings/:id", h.Booking.Get)
	api.POST("/bookings", h.Booking.Create, adminOnly)
	api.PUT("/bookings/:id", h.Booking.Update, adminOnly)
	api.POST("/bookings/:id/submit", h.Booking.Submit, adminOnly)
	api.POST("/bookings/:id/cancel", h.Booking.Cancel, adminOnly)
	api.DELETE("/bookings/:id", h.Booking.PermanentDelete, adminOnly)

	// Review stages, each gated to its officer role.
	recOnly := middleware.RequireRole(model.RoleRecommendation)
	appOnly := middleware.RequireRole(model.RoleApproval)
	api.POST("/bookings/:id/recommend", h.Review.Recommend, recOnly)
	api.POST("/bookings/:id/cancel-recommendation", h.Review.CancelRecommendation, recOnly)
	api.POST("/bookings/:id/approve", h.Review.Approve, appOnly)
	api.POST("/bookings/:id/cancel-approval", h.Review.CancelApproval, appOnly)

	// Share link issuance: admins delegate the recommendation stage,
	// recommendation officers delegate the approval stage.
	api.POST("/bookings/:id/share-links", h.Share.Generate,
		middleware.RequireRole(model.RoleAdmin, model.RoleRecommendation))

	// Payments and invoices.
	api.POST("/bookings/:id/request-payment", h.Payment.RequestPayment, adminOnly)
	api.POST("/bookings/:id/confirm-payment", h.Payment.ConfirmPayment, adminOnly)
	api.POST("/bookings/:id/complete", h.Payment.Complete, adminOnly)
	api.GET("/bookings/:id/invoice", h.Payment.GetInvoice)
	api.POST("/bookings/:id/invoice/extra-charges", h.Payment.AddExtraCharge, adminOnly)
	api.POST("/bookings/:id/invoice/refund", h.Payment.Refund, adminOnly)

	// Reports: cached, read-only.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/reports/dashboard", h.Report.Dashboard, cache)
	api.GET("/reports/status-distribution", h.Report.StatusDistribution, cache)
}
