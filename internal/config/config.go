package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML with
// environment overrides on top.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	CORS     CORSConfig     `yaml:"cors"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Chains   ChainsConfig   `yaml:"chains"`
	Metadata MetadataConfig `yaml:"metadata"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig NATS publisher configuration. Leave URL empty to disable
// event publishing.
type NATSConfig struct {
	URL        string `yaml:"url"`
	StreamName string `yaml:"stream_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// AuthConfig JWT auth configuration for the payment API.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenExpiry int    `yaml:"token_expiry"` // hours
}

// AdminConfig admin API access control. PasswordHash is a bcrypt hash;
// TOTPSecret enables the second factor.
type AdminConfig struct {
	PasswordHash string `yaml:"password_hash"`
	TOTPSecret   string `yaml:"totp_secret"`
}

// GatewayConfig Circle Gateway configuration. MaxFee is the per-intent
// protocol fee budget in smallest USDC units.
type GatewayConfig struct {
	APIBase        string `yaml:"api_base"`
	APIKey         string `yaml:"api_key"`
	WalletContract string `yaml:"wallet_contract"`
	MinterContract string `yaml:"minter_contract"`
	FeeRecipient   string `yaml:"fee_recipient"`
	MaxFee         string `yaml:"max_fee"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// WalletConfig backing key for the service wallet. The private key only
// ever comes from the environment, never from the YAML file.
type WalletConfig struct {
	PrivateKey string `yaml:"-"`
}

// ChainsConfig optional per-chain RPC endpoint overrides, keyed by
// chain id. Addresses and domain ids live in the chain registry.
type ChainsConfig struct {
	RPCOverrides map[uint64][]string `yaml:"rpc_overrides"`
}

// MetadataConfig receipt token metadata defaults.
type MetadataConfig struct {
	ImageURL    string `yaml:"image_url"`
	Description string `yaml:"description"`
}

// Defaults matching the testnet deployment this service was built
// against.
const (
	DefaultGatewayAPIBase = "https://gateway-api-testnet.circle.com/v1"
	DefaultGatewayWallet  = "0x0077777d7EBA4688BDeF3E311b846F25870A19B9"
	DefaultGatewayMinter  = "0x0022222ABE238Cc2C7Bb1f21003F0a260052475B"
	DefaultGatewayMaxFee  = "2010000"
	DefaultMetadataImage  = "https://rsccazzxaigxjuhnedoi.supabase.co/storage/v1/object/public/public-assets/oncultlogo.svg"
	DefaultMetadataDesc   = "Proof of purchase for Oncult marketplace."
)

// AppConfig is the global configuration instance.
var AppConfig *Config

// LoadConfig reads the YAML file at configPath (optional), applies
// defaults and environment overrides, and sets AppConfig.
func LoadConfig(configPath string) error {
	cfg := &Config{}

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyDefaults(cfg)
	overrideFromEnv(cfg)

	if cfg.Gateway.FeeRecipient == "" {
		return fmt.Errorf("gateway.fee_recipient is required (platform fee collection address)")
	}

	AppConfig = cfg
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Gateway.APIBase == "" {
		cfg.Gateway.APIBase = DefaultGatewayAPIBase
	}
	if cfg.Gateway.WalletContract == "" {
		cfg.Gateway.WalletContract = DefaultGatewayWallet
	}
	if cfg.Gateway.MinterContract == "" {
		cfg.Gateway.MinterContract = DefaultGatewayMinter
	}
	if cfg.Gateway.MaxFee == "" {
		cfg.Gateway.MaxFee = DefaultGatewayMaxFee
	}
	if cfg.Gateway.TimeoutSecs == 0 {
		cfg.Gateway.TimeoutSecs = 30
	}
	if cfg.NATS.StreamName == "" {
		cfg.NATS.StreamName = "ONCULT_EVENTS"
	}
	if cfg.NATS.Timeout == 0 {
		cfg.NATS.Timeout = 5
	}
	if cfg.Auth.TokenExpiry == 0 {
		cfg.Auth.TokenExpiry = 24
	}
	if cfg.Metadata.ImageURL == "" {
		cfg.Metadata.ImageURL = DefaultMetadataImage
	}
	if cfg.Metadata.Description == "" {
		cfg.Metadata.Description = DefaultMetadataDesc
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.CORS.AllowedOrigins = cfg.CORS.AllowedOrigins[:0]
		for _, o := range parts {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, trimmed)
			}
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Admin.PasswordHash = hash
	}
	if totp := os.Getenv("ADMIN_TOTP_SECRET"); totp != "" {
		cfg.Admin.TOTPSecret = totp
	}
	if base := os.Getenv("GATEWAY_API_BASE"); base != "" {
		cfg.Gateway.APIBase = base
	}
	if key := os.Getenv("GATEWAY_API_KEY"); key != "" {
		cfg.Gateway.APIKey = key
	}
	if recipient := os.Getenv("PLATFORM_FEE_ADDRESS"); recipient != "" {
		cfg.Gateway.FeeRecipient = recipient
	}
	if pk := os.Getenv("WALLET_PRIVATE_KEY"); pk != "" {
		cfg.Wallet.PrivateKey = pk
	}
}

// GatewayTimeout returns the attestation call timeout as a duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSecs) * time.Second
}

// TokenExpiry returns the buyer token lifetime as a duration.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Auth.TokenExpiry) * time.Hour
}
