package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ID", "app-id-123")
	t.Setenv("SECRET_KEY", "secret-456")
	t.Setenv("REDIRECT_URI", "http://127.0.0.1:5000/fyers/callback")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "app-id-123", cfg.AppID)
	require.Equal(t, "secret-456", cfg.SecretKey)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "5000", cfg.HTTPPort)
	require.Equal(t, "https://api-t1.fyers.in/api/v3/generate-authcode", cfg.AuthURL)
	require.Equal(t, "https://api-t1.fyers.in/api/v3/validate-authcode", cfg.TokenURL)
	require.Equal(t, "data/tokens", cfg.TokensDir)
	require.Equal(t, 10*time.Minute, cfg.StateTTL)
	require.Equal(t, 1000, cfg.StateMaxPending)
	require.Equal(t, 10*time.Second, cfg.ExchangeTimeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("APP_ID", "")
	t.Setenv("BROKER_API_KEY", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("BROKER_API_SECRET", "")
	t.Setenv("REDIRECT_URI", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "APP_ID/BROKER_API_KEY")
	require.Contains(t, err.Error(), "SECRET_KEY/BROKER_API_SECRET")
	require.Contains(t, err.Error(), "REDIRECT_URI")
}

func TestLoad_BrokerFallbackNames(t *testing.T) {
	t.Setenv("APP_ID", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("BROKER_API_KEY", "broker-app")
	t.Setenv("BROKER_API_SECRET", "broker-secret")
	t.Setenv("REDIRECT_URI", "http://127.0.0.1:5000/fyers/callback")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "broker-app", cfg.AppID)
	require.Equal(t, "broker-secret", cfg.SecretKey)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("STATE_TTL", "5m")
	t.Setenv("STATE_MAX_PENDING", "50")
	t.Setenv("TOKEN_URL", "http://localhost:9999/token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 5*time.Minute, cfg.StateTTL)
	require.Equal(t, 50, cfg.StateMaxPending)
	require.Equal(t, "http://localhost:9999/token", cfg.TokenURL)
}
