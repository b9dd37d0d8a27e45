package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	CORSAllowOrigins  string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	JudgeBaseURL      string
	JudgeAPIKey       string
	JudgeAPIHost      string
	JudgeAuthToken    string
	JudgePollInterval time.Duration
	JudgePollDeadline time.Duration
	JudgeHTTPTimeout  time.Duration
	SubmitCooldown    time.Duration
	RunRateLimit      int
	RunRateWindow     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Judge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "submission.judged")
	v.SetDefault("judge.poll_interval", "1s")
	v.SetDefault("judge.poll_deadline", "30s")
	v.SetDefault("judge.http_timeout", "10s")
	v.SetDefault("submit.cooldown", "20s")
	v.SetDefault("run.rate_limit", 10)
	v.SetDefault("run.rate_window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"judge.poll_interval", "judge.poll_deadline", "judge.http_timeout", "submit.cooldown", "run.rate_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		JudgeBaseURL:      strings.TrimRight(v.GetString("judge.base_url"), "/"),
		JudgeAPIKey:       v.GetString("judge.api_key"),
		JudgeAPIHost:      v.GetString("judge.api_host"),
		JudgeAuthToken:    v.GetString("judge.auth_token"),
		JudgePollInterval: durations["judge.poll_interval"],
		JudgePollDeadline: durations["judge.poll_deadline"],
		JudgeHTTPTimeout:  durations["judge.http_timeout"],
		SubmitCooldown:    durations["submit.cooldown"],
		RunRateLimit:      v.GetInt("run.rate_limit"),
		RunRateWindow:     durations["run.rate_window"],
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeBaseURL == "" {
		return Config{}, fmt.Errorf("judge base url must be provided")
	}

	if cfg.JudgePollDeadline < cfg.JudgePollInterval {
		return Config{}, fmt.Errorf("judge poll deadline must not be shorter than the poll interval")
	}

	if cfg.RunRateLimit <= 0 {
		cfg.RunRateLimit = 10
	}

	return cfg, nil
}
