package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/adapter/cache"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/adapter/fyers"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/config"
	httptransport "github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/http"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/http/handler"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/middleware"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/repository"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/server"
	authservice "github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/service/auth"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newStateStore,
			newExchanger,
			newTokenRepository,
			authservice.NewOAuthService,
			newRateLimiter,
			handler.NewAuthHandler,
			newRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		encoderCfg zapcore.EncoderConfig
		encoder    zapcore.Encoder
		level      zapcore.Level
	)
	if cfg.Environment == "development" {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
		level = zap.DebugLevel
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoder = zapcore.NewJSONEncoder(encoderCfg)
		level = zap.InfoLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	if cfg.LogFile != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			fileSink,
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newStateStore(cfg config.Config) repository.StateStore {
	return cache.NewMemoryStateStore(cfg.StateTTL, cfg.StateMaxPending)
}

func newExchanger(cfg config.Config) fyers.Exchanger {
	return fyers.NewHTTPExchanger(cfg.TokenURL, &http.Client{Timeout: cfg.ExchangeTimeout})
}

func newTokenRepository(cfg config.Config, node *snowflake.Node) repository.TokenRepository {
	return repository.NewFileTokenRepo(cfg.TokensDir, node)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newRouter(cfg config.Config, authHandler *handler.AuthHandler, rateLimiter *middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	return httptransport.NewRouter(cfg, authHandler, rateLimiter, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting fyers oauth server",
				zap.String("addr", addr),
				zap.String("app_id", maskCredential(cfg.AppID)),
				zap.String("redirect_uri", cfg.RedirectURI),
			)

			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}

func maskCredential(value string) string {
	if len(value) <= 5 {
		return value
	}
	return value[:5] + strings.Repeat("*", len(value)-5)
}
