package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BackendConfig locates one of the linked applications' data stores.
type BackendConfig struct {
	URL         string
	AnonKey     string
	ServiceKey  string
	DatabaseURL string
}

// APIKey returns the key used against the REST data API. The service-role key
// wins over the anonymous key because it bypasses row level security.
func (b BackendConfig) APIKey() string {
	if b.ServiceKey != "" {
		return b.ServiceKey
	}
	return b.AnonKey
}

// Direct reports whether the backend is reached through a Postgres DSN.
func (b BackendConfig) Direct() bool {
	return b.DatabaseURL != ""
}

// Configured reports whether any way of reaching the backend was supplied.
func (b BackendConfig) Configured() bool {
	return b.Direct() || (b.URL != "" && b.APIKey() != "")
}

// WebhookConfig describes the delivery endpoint and its retry policy.
type WebhookConfig struct {
	URL             string
	Secret          string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config holds runtime configuration values for the notifier.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	LogLevel     string
	Congrats     BackendConfig
	Vetted       BackendConfig
	Webhook      WebhookConfig
	RedisURL     string
	DedupeTTL    time.Duration
	NATSURL      string
	NATSSubject  string
	JWTSecret    string
	RateLimitMax int
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
	v.SetEnvPrefix("VETTED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Vetted Notifier")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.max_retries", 4)
	v.SetDefault("webhook.initial_interval", "500ms")
	v.SetDefault("webhook.max_interval", "10s")
	v.SetDefault("notify.dedupe_ttl", "10m")
	v.SetDefault("nats.subject", "vetted.submissions.notified")
	v.SetDefault("rate_limit.max", 30)

	durations := map[string]time.Duration{}
	for _, key := range []string{"webhook.timeout", "webhook.initial_interval", "webhook.max_interval", "notify.dedupe_ttl"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	retries := v.GetInt("webhook.max_retries")
	if retries < 0 {
		return Config{}, fmt.Errorf("webhook.max_retries must not be negative")
	}

	cfg := Config{
		AppName:  v.GetString("app.name"),
		AppEnv:   v.GetString("app.env"),
		AppPort:  v.GetString("app.port"),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		Congrats: backend(v, "congrats"),
		Vetted:   backend(v, "vetted"),
		Webhook: WebhookConfig{
			URL:             strings.TrimSpace(v.GetString("webhook.url")),
			Secret:          v.GetString("webhook.secret"),
			Timeout:         durations["webhook.timeout"],
			MaxRetries:      uint64(retries),
			InitialInterval: durations["webhook.initial_interval"],
			MaxInterval:     durations["webhook.max_interval"],
		},
		RedisURL:     v.GetString("redis.url"),
		DedupeTTL:    durations["notify.dedupe_ttl"],
		NATSURL:      v.GetString("nats.url"),
		NATSSubject:  v.GetString("nats.subject"),
		JWTSecret:    v.GetString("jwt.secret"),
		RateLimitMax: v.GetInt("rate_limit.max"),
	}

	if !cfg.Congrats.Configured() {
		return Config{}, fmt.Errorf("congrats backend requires a database url or an api url with a key")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}

func backend(v *viper.Viper, prefix string) BackendConfig {
	return BackendConfig{
		URL:         strings.TrimSpace(v.GetString(prefix + ".url")),
		AnonKey:     v.GetString(prefix + ".anon_key"),
		ServiceKey:  v.GetString(prefix + ".service_key"),
		DatabaseURL: v.GetString(prefix + ".database_url"),
	}
}
