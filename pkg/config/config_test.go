package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "")
	t.Setenv("CHECKOUT_PUBLIC_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Marketplace.BaseURL)
	assert.Empty(t, cfg.Checkout.PublicKey)
	assert.Equal(t, 15*time.Minute, cfg.Checkout.CallbackTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_MarketplaceAndCheckout(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "https://api.example.test/")
	t.Setenv("CHECKOUT_PUBLIC_KEY", "rzp_test_123")
	t.Setenv("CHECKOUT_CALLBACK_TIMEOUT", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", cfg.Marketplace.BaseURL)
	assert.Equal(t, "rzp_test_123", cfg.Checkout.PublicKey)
	assert.Equal(t, 2*time.Minute, cfg.Checkout.CallbackTimeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidMarketplaceURL(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "not-a-url")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_OTELRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_ENDPOINT", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("SCREEN_IDLE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Screens.IdleTTL)
}
