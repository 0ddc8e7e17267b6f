package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Mpesa    MpesaConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	DashboardTTL   time.Duration
	ProductListTTL time.Duration
}

// AuthConfig holds JWT signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MpesaConfig holds Daraja API credentials for STK push
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Shortcode      string
	Environment    string
	CallbackURL    string
	Timeout        time.Duration
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "duka_pos")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_DASHBOARD", "60s")
	viper.SetDefault("CACHE_TTL_PRODUCT_LIST", "120s")

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_TOKEN_TTL", "12h")

	viper.SetDefault("MPESA_CONSUMER_KEY", "")
	viper.SetDefault("MPESA_CONSUMER_SECRET", "")
	viper.SetDefault("MPESA_PASSKEY", "")
	viper.SetDefault("MPESA_SHORTCODE", "")
	viper.SetDefault("MPESA_ENVIRONMENT", "sandbox")
	viper.SetDefault("MPESA_CALLBACK_URL", "")
	viper.SetDefault("MPESA_TIMEOUT", "30s")

	readTimeout, err := time.ParseDuration(viper.GetString("SERVER_READ_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(viper.GetString("SERVER_WRITE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(viper.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	dashboardTTL, err := time.ParseDuration(viper.GetString("CACHE_TTL_DASHBOARD"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_DASHBOARD: %w", err)
	}

	productListTTL, err := time.ParseDuration(viper.GetString("CACHE_TTL_PRODUCT_LIST"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_PRODUCT_LIST: %w", err)
	}

	tokenTTL, err := time.ParseDuration(viper.GetString("JWT_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TOKEN_TTL: %w", err)
	}

	mpesaTimeout, err := time.ParseDuration(viper.GetString("MPESA_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid MPESA_TIMEOUT: %w", err)
	}

	allowedOriginsStr := viper.GetString("CORS_ALLOWED_ORIGINS")
	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  allowedOrigins,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			DashboardTTL:   dashboardTTL,
			ProductListTTL: productListTTL,
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		Mpesa: MpesaConfig{
			ConsumerKey:    viper.GetString("MPESA_CONSUMER_KEY"),
			ConsumerSecret: viper.GetString("MPESA_CONSUMER_SECRET"),
			Passkey:        viper.GetString("MPESA_PASSKEY"),
			Shortcode:      viper.GetString("MPESA_SHORTCODE"),
			Environment:    viper.GetString("MPESA_ENVIRONMENT"),
			CallbackURL:    viper.GetString("MPESA_CALLBACK_URL"),
			Timeout:        mpesaTimeout,
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// MpesaBaseURL returns the Daraja API base URL for the configured environment
func (c *Config) MpesaBaseURL() string {
	if c.Mpesa.Environment == "production" {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}
