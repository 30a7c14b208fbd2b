// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MemoryURI selects the embedded document engine instead of a MongoDB server.
const MemoryURI = "memory://"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	AppName             string        `mapstructure:"APP_NAME"`
	APIVersion          string        `mapstructure:"API_VERSION"`
	Env                 string        `mapstructure:"APP_ENV"`
	Port                string        `mapstructure:"PORT"`
	Host                string        `mapstructure:"HOST"`
	MongoURI            string        `mapstructure:"MONGO_DB_URI"`
	DBName              string        `mapstructure:"DB_NAME"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn        time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	ActivationExpiresIn time.Duration `mapstructure:"ACTIVATION_EXPIRES_IN"`
	CookieMaxAge        int           `mapstructure:"COOKIE_MAX_AGE"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	AllowedOrigins      string        `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags        string        `mapstructure:"FEATURE_FLAGS"`
	MailgunDomain       string        `mapstructure:"MAILGUN_DOMAIN"`
	MailgunAPIKey       string        `mapstructure:"MAILGUN_API_KEY"`
	MailSender          string        `mapstructure:"MAIL_SENDER"`
	RabbitMQURL         string        `mapstructure:"RABBITMQ_URL"`
	EmailQueue          string        `mapstructure:"EMAIL_QUEUE"`
	IndexDir            string        `mapstructure:"INDEX_DIR"`
	TracingEnabled      bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string        `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("APP_NAME", "social")
	viper.SetDefault("API_VERSION", "1")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "3000")
	viper.SetDefault("HOST", "http://localhost:3000")
	viper.SetDefault("MONGO_DB_URI", "mongodb://localhost:27017")
	viper.SetDefault("DB_NAME", "")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("JWT_EXPIRES_IN", "1h")
	viper.SetDefault("ACTIVATION_EXPIRES_IN", "168h")
	viper.SetDefault("COOKIE_MAX_AGE", 3600)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8080,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("MAIL_SENDER", "Social <no-reply@social.local>")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("EMAIL_QUEUE", "email_jobs")
	viper.SetDefault("INDEX_DIR", "static")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.DBName == "" {
		config.DBName = DefaultDBName(config.AppName, config.Env)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultDBName derives the database name from the app name and environment:
// "social" in production, "social-test" under test and "social-dev" otherwise.
func DefaultDBName(app, env string) string {
	switch env {
	case "production", "prod":
		return app
	case "test":
		return app + "-test"
	default:
		return app + "-dev"
	}
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// APIPath is the prefix every route is mounted under, e.g. /social/api/v1.
func (c *Config) APIPath() string {
	return fmt.Sprintf("/%s/api/v%s", c.AppName, strings.TrimPrefix(c.APIVersion, "v"))
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AppName == "" {
		return errors.New("APP_NAME is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGO_DB_URI is required")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.CookieMaxAge <= 0 {
		return errors.New("COOKIE_MAX_AGE must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.MongoURI == MemoryURI {
			return errors.New("MONGO_DB_URI cannot use the in-memory engine in production")
		}
		if c.MailgunDomain == "" || c.MailgunAPIKey == "" {
			log.Println("WARNING: Mailgun is not configured in production. Activation emails will only be logged.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
