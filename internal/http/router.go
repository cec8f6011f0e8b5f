package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/config"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/http/handler"
	httpmiddleware "github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/http/middleware"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/middleware"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/web"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, rateLimiter *middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(authHandler.Recovered))
	r.Use(httpmiddleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(otelgin.Middleware(cfg.ServiceName))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := web.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", authHandler.Index)
	r.GET("/login", authHandler.Login)
	r.GET("/fyers/callback", authHandler.Callback)
	r.GET("/tokens", authHandler.ListTokens)
	r.GET("/token/:id", authHandler.ViewToken)

	r.NoRoute(authHandler.NotFound)

	return r, nil
}
