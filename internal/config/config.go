package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// AuthConfig holds authentication configuration. Tokens are HS256 with a
// fixed 72h expiry.
type AuthConfig struct {
	TokenKey string `mapstructure:"token_key"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// NetworkConfig holds per-network chain access configuration.
// GasPriceFloorGwei is the minimum gas price used for submissions and
// estimates regardless of what the node suggests.
type NetworkConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	ChainID           int64         `mapstructure:"chain_id"`
	GasPriceFloorGwei int64         `mapstructure:"gas_price_floor_gwei"`
	GasLimit          uint64        `mapstructure:"gas_limit"`
	ReceiptTimeout    time.Duration `mapstructure:"receipt_timeout"`
}

// ContentConfig holds content-storage collaborator configuration
type ContentConfig struct {
	UploadURL    string        `mapstructure:"upload_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxImageSize int64         `mapstructure:"max_image_size"`
}

// ReconcilerConfig holds pending-submission reconciler configuration
type ReconcilerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	PoolSize  int           `mapstructure:"pool_size"`
}

// GatewayConfig holds configuration for the API gateway
type GatewayConfig struct {
	Debug         bool                     `mapstructure:"debug"`
	SentryDSN     string                   `mapstructure:"sentry_dsn"`
	ContractsPath string                   `mapstructure:"contracts_path"`
	Server        ServerConfig             `mapstructure:"server"`
	Database      DatabaseConfig           `mapstructure:"database"`
	Auth          AuthConfig               `mapstructure:"auth"`
	Content       ContentConfig            `mapstructure:"content"`
	Reconciler    ReconcilerConfig         `mapstructure:"reconciler"`
	Networks      map[string]NetworkConfig `mapstructure:"networks"`
}

// LoadGatewayConfig loads configuration for the API gateway
func LoadGatewayConfig(configFile string, envPath string) (*GatewayConfig, error) {
	v := configureViper(configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("contracts_path", "config/contracts.json")
	v.SetDefault("content.timeout", "30s")
	v.SetDefault("content.max_image_size", 5*1024*1024)
	v.SetDefault("reconciler.interval", "30s")
	v.SetDefault("reconciler.batch_size", 50)
	v.SetDefault("reconciler.pool_size", 10)
	v.SetDefault("networks.polygon.chain_id", 137)
	v.SetDefault("networks.polygon.gas_price_floor_gwei", 40)
	v.SetDefault("networks.oasy.chain_id", 248)
	v.SetDefault("networks.oasy.gas_price_floor_gwei", 1)
	v.SetDefault("networks.goerli.chain_id", 5)
	v.SetDefault("networks.goerli.gas_price_floor_gwei", 2)
	for _, n := range []string{"polygon", "oasy", "goerli"} {
		v.SetDefault("networks."+n+".gas_limit", 2300000)
		v.SetDefault("networks."+n+".receipt_timeout", "2m")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var cfg GatewayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.TokenKey == "" {
		return nil, errors.New("auth.token_key is required")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("cmd/api/")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields
// when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"contracts_path",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Auth
		"auth.token_key",
		"auth.username",
		"auth.password",
		// Content storage
		"content.upload_url",
		"content.api_key",
		"content.timeout",
		"content.max_image_size",
		// Reconciler
		"reconciler.interval",
		"reconciler.batch_size",
		"reconciler.pool_size",
	}

	for _, n := range []string{"polygon", "oasy", "goerli"} {
		keys = append(keys,
			"networks."+n+".rpc_url",
			"networks."+n+".chain_id",
			"networks."+n+".gas_price_floor_gwei",
			"networks."+n+".gas_limit",
			"networks."+n+".receipt_timeout",
		)
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range []string{".env", ".env.local"} {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
