// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Filename string `yaml:"filename"`
}

// IdentityConfig points at the hosted identity backend (a Cognito user pool)
// whose admin API provisions accounts. The elevated credential comes from the
// environment, never from the YAML file.
type IdentityConfig struct {
	PoolID   string `yaml:"pool_id"`
	ClientID string `yaml:"client_id"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type ProvisioningConfig struct {
	StepTimeoutSeconds int `yaml:"step_timeout_seconds"`
}

// BootstrapConfig holds the optional break-glass admin credential, used to
// sign in before any role rows exist. The password hash (bcrypt) comes from
// the environment.
type BootstrapConfig struct {
	AdminEmail        string `yaml:"admin_email"`
	AdminPasswordHash string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		TrustProxy  bool   `yaml:"trust_proxy"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database     DatabaseConfig     `yaml:"database"`
	Identity     IdentityConfig     `yaml:"identity"`
	Email        EmailConfig        `yaml:"email"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Bootstrap    BootstrapConfig    `yaml:"bootstrap"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")
	cfg.Bootstrap.AdminPasswordHash = os.Getenv("BOOTSTRAP_ADMIN_PASSWORD_HASH")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.SecretKey == "" {
		return fmt.Errorf("app secret key is required")
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required")
	}
	if c.Identity.PoolID == "" {
		return fmt.Errorf("identity pool id is required")
	}
	if c.Identity.ClientID == "" {
		return fmt.Errorf("identity client id is required")
	}

	return nil
}

// StepTimeout returns the per-step provisioning timeout, defaulting to 10s.
func (c *Config) StepTimeout() time.Duration {
	if c.Provisioning.StepTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Provisioning.StepTimeoutSeconds) * time.Second
}
