package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	BackendConfig struct {
		URL     string
		Timeout time.Duration
	}

	SessionConfig struct {
		CookieName string
		SecretKey  string
	}

	IdentityConfig struct {
		URL        string
		ServiceKey string
	}

	Config struct {
		Env             string
		Build           string
		AppName         string
		Debug           bool
		TestMode        bool
		WorkDir         string
		FrontendBaseURL string
		RollbarToken    string
		SendgridAPIKey  string

		defaultFromEmail string

		Server   ServerConfig
		Backend  BackendConfig
		Session  SessionConfig
		Identity IdentityConfig
	}
)

// NewConfig loads the configuration from the environment, optionally seeded by `config/.env.<env>`.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD; it also prefixes every variable (eg: DEV_BACKEND_URL).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Masomo <noreply@localhost>")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("backend.url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("session.cookieName", "masomo.session-token")
	v.SetDefault("session.secretKey", "")
	v.SetDefault("identity.url", "")
	v.SetDefault("identity.serviceKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the unprefixed name is what the frontend deployments already export
	if url := os.Getenv("BACKEND_API_URL"); url != "" {
		v.SetDefault("backend.url", url)
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		WorkDir:          workDir,
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(v.GetString("backend.url"), "/"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Session: SessionConfig{
			CookieName: v.GetString("session.cookieName"),
			SecretKey:  v.GetString("session.secretKey"),
		},
		Identity: IdentityConfig{
			URL:        strings.TrimRight(v.GetString("identity.url"), "/"),
			ServiceKey: v.GetString("identity.serviceKey"),
		},
	}
}

// DefaultFromEmail parses the configured sender; an unparsable value falls back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}
