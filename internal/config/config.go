package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Node        NodeConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Fee         FeeConfig
	Payment     PaymentConfig
	AWS         AWSConfig
}

type NodeConfig struct {
	// Name of this participant on the marketplace network.
	Name string
	// RepositoryNode is the name of the custodian every developer and
	// buyer talks to.
	RepositoryNode string
	// PrivateKeySeed is the hex-encoded ed25519 seed of this node's
	// signing key. Generated on the fly when empty (dev mode only).
	PrivateKeySeed string
	// LocalNetPeers lists extra participants booted alongside this node
	// on the in-process bus, for local networks.
	LocalNetPeers  []string
	SessionTimeout time.Duration
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	// Driver selects the vault backend: "postgres" or "memory".
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey        string
	AccessTokenTTL   int // in hours
	OperatorPassword string
}

type FeeConfig struct {
	// Percent retained by the repository node on every sale, agreed in
	// fee agreements established with developers.
	Percent int
}

type PaymentConfig struct {
	StripeSecretKey string
	DefaultCurrency string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Node: NodeConfig{
			Name:           getEnv("NODE_NAME", "RepositoryNode"),
			RepositoryNode: getEnv("REPOSITORY_NODE", "RepositoryNode"),
			PrivateKeySeed: getEnv("NODE_PRIVATE_KEY_SEED", ""),
			LocalNetPeers:  getEnvAsSlice("LOCALNET_PEERS", nil),
			SessionTimeout: time.Duration(getEnvAsInt("SESSION_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "memory"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "vnf_repository"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:   getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
			OperatorPassword: getEnv("OPERATOR_PASSWORD", ""),
		},
		Fee: FeeConfig{
			Percent: getEnvAsInt("FEE_PERCENT", 10),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			DefaultCurrency: getEnv("DEFAULT_CURRENCY", "EUR"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "vnf-repository-artifacts"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver != "memory" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported vault driver: %s", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Fee.Percent < 0 || c.Fee.Percent > 100 {
		return fmt.Errorf("fee percent must be between 0 and 100")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
