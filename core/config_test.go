package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_BACKEND_TIMEOUT", "3s")
	t.Setenv("TEST_SESSION_SECRETKEY", "s3cret")
	t.Setenv("BACKEND_API_URL", "http://backend:8080/api/")
	t.Setenv("TEST_DEFAULTFROMEMAIL", "Masomo <hello@masomo.cd>")

	conf := NewConfig()

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "http://backend:8080/api", conf.Backend.URL)
	assert.Equal(t, 3*time.Second, conf.Backend.Timeout)
	assert.Equal(t, "s3cret", conf.Session.SecretKey)
	assert.Equal(t, "masomo.session-token", conf.Session.CookieName)
	assert.Equal(t, ":8000", conf.Server.Address)
	assert.Equal(t, "hello@masomo.cd", conf.DefaultFromEmail().Address)
}

func TestNewConfig_prefixedBackendURLWins(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("BACKEND_API_URL", "http://shared")
	t.Setenv("TEST_BACKEND_URL", "http://prefixed")

	assert.Equal(t, "http://prefixed", NewConfig().Backend.URL)
}
