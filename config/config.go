package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Remote bus API.
	APIBaseURL    string        `mapstructure:"API_BASE_URL"`
	APITimeout    time.Duration `mapstructure:"API_TIMEOUT"`
	SubmitTimeout time.Duration `mapstructure:"SUBMIT_TIMEOUT"`
	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`

	// Redis configuration.
	CacheBackend   string `mapstructure:"CACHE_BACKEND"` // "redis" or "memory"
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB    int    `mapstructure:"REDIS_AUTH_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Confirmation mail. Mail is disabled when SMTP_HOST is empty.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	// Attempts made by the background worker for confirmations that failed inline.
	MailMaxRetry int `mapstructure:"MAIL_MAX_RETRY"`

	// UPI payee shown on the payment QR.
	UPIPayee     string `mapstructure:"UPI_PAYEE"`
	UPIPayeeName string `mapstructure:"UPI_PAYEE_NAME"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	v.SetDefault("API_BASE_URL", "https://travels-nkfu.onrender.com/api")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("SUBMIT_TIMEOUT", "20s")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("SESSION_TTL", "30m")

	v.SetDefault("CACHE_BACKEND", "redis")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_AUTH_DB", 1)
	v.SetDefault("REDIS_SESSION_DB", 2)
	v.SetDefault("REDIS_QUEUE_DB", 3)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("MAIL_MAX_RETRY", 5)

	v.SetDefault("UPI_PAYEE", "6302543439@axl")
	v.SetDefault("UPI_PAYEE_NAME", "VipulStore")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig populates AppConfig from the global viper instance.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UseRedis reports whether Redis backs the caches and session store.
func (c Config) UseRedis() bool {
	return !strings.EqualFold(c.CacheBackend, "memory")
}

// MailEnabled reports whether confirmation mail should go over SMTP.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

// RetryMail reports whether failed confirmations are queued for the
// background worker. The queue lives in Redis.
func (c Config) RetryMail() bool {
	return c.MailEnabled() && c.UseRedis() && c.MailMaxRetry > 0
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
