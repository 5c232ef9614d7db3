package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	_ "github.com/mozillians/backend/docs"
	"github.com/mozillians/backend/internal/bootstrap"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/logger"
	"github.com/mozillians/backend/internal/interfaces/http/handler"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
	"github.com/mozillians/backend/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func newEngine(cfg *config.Config, app *bootstrap.App, limiter *middleware.RateLimiter, version string) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(app.Logger),
		logger.GinMiddleware(app.Logger),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.Secure(middleware.SecurityConfig{HSTSEnabled: cfg.App.Env == "production"}),
		middleware.CORSWithConfig(cors),
		app.Metrics.GinMiddleware(),
	)

	scoped := func(pc middleware.PrivacyConfig) []gin.HandlerFunc {
		pc.Apps = app.Apps
		pc.Tokens = app.Tokens
		pc.Logger = logger.Named(app.Logger, "privacy")
		chain := []gin.HandlerFunc{middleware.PrivacyResolver(pc), middleware.SpanEnricher()}
		if cfg.Profiling.Enabled {
			chain = append(chain, middleware.Profiling())
		}
		if limiter != nil {
			chain = append(chain, middleware.RateLimit(limiter))
		}
		return chain
	}

	router.API{
		Profiles:     handler.NewProfileHandler(app.ReadModel, app.Serializer, app.URLs),
		Groups:       handler.NewGroupHandler(app.ReadModel, app.Serializer, app.URLs),
		Skills:       handler.NewSkillHandler(app.ReadModel, app.Serializer, app.URLs),
		System:       handler.NewSystemHandler(cfg.App.Name, version, app.DB),
		Metrics:      app.Metrics.Handler(),
		V1Middleware: scoped(middleware.PrivacyConfig{RequireCredential: true}),
		V2Middleware: scoped(middleware.PrivacyConfig{Anonymous: directory.PrivacyPublic}),
	}.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return engine, nil
}
