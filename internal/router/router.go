package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/handler"
	"github.com/carebridge/portal-api/internal/middleware"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Practice     *handler.PracticeHandler
	Invitation   *handler.InvitationHandler
	JoinRequest  *handler.JoinRequestHandler
	Doctor       *handler.DoctorHandler
	Notification *handler.NotificationHandler
	Matcher      *handler.MatcherHandler
}

func New(cfg *config.Config, h Handlers, authMw *middleware.AuthMiddleware, log *logger.Logger, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidation()
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS())
	engine.Use(middleware.RequestLogger(log, m))

	if cfg.Server.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		engine.Use(rl.Handle())
	}

	engine.GET("/health/live", h.Health.Live)
	engine.GET("/health/ready", h.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")

	public := v1.Group("")
	public.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		public.POST("/auth/register", h.Auth.Register)
		public.POST("/auth/login", h.Auth.Login)
		public.POST("/auth/refresh", h.Auth.Refresh)

		// The acceptance page resolves the invitation before sign-in.
		public.GET("/invitations/:token", h.Invitation.Get)
	}

	protected := v1.Group("")
	protected.Use(authMw.Authenticate())

	// Streaming endpoints hold the connection open, so they skip the
	// request timeout.
	protected.GET("/doctors/:id/status/stream", h.Doctor.StreamStatus)
	protected.GET("/notifications/stream", h.Notification.Stream)

	bounded := protected.Group("")
	bounded.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		bounded.POST("/practices", h.Practice.Create)
		bounded.GET("/practices", h.Practice.List)
		bounded.GET("/practices/:id", h.Practice.Get)
		bounded.PUT("/practices/:id", h.Practice.Update)
		bounded.GET("/practices/:id/staff", h.Practice.ListStaff)

		bounded.POST("/practices/:id/invitations", h.Invitation.Create)
		bounded.GET("/practices/:id/invitations", h.Invitation.ListByPractice)
		bounded.POST("/invitations/:token/accept", h.Invitation.Accept)
		bounded.POST("/invitations/:token/revoke", h.Invitation.Revoke)

		bounded.POST("/practices/:id/join-requests", h.JoinRequest.Submit)
		bounded.GET("/practices/:id/join-requests", h.JoinRequest.ListPending)
		bounded.POST("/join-requests/:id/approve", h.JoinRequest.Approve)
		bounded.POST("/join-requests/:id/reject", h.JoinRequest.Reject)

		bounded.PUT("/doctors/me", h.Doctor.UpsertMe)
		bounded.POST("/doctors/me/status", h.Doctor.SetAvailability)
		bounded.GET("/doctors/:id", h.Doctor.Get)

		bounded.GET("/notifications", h.Notification.Feed)
		bounded.POST("/notifications/:id/read", h.Notification.MarkRead)

		bounded.POST("/matching/search", h.Matcher.Search)
	}

	return engine
}
