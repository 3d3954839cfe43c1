package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models hireline.yml.
type Config struct {
	Company struct {
		ID   string `yaml:"id" json:"id"`
		Name string `yaml:"name" json:"name"`
	} `yaml:"company" json:"company"`
	Pipeline struct {
		// Funnel is "free" (any status reachable from a non-terminal state)
		// or "strict" (forward-only, rejected reachable from anywhere).
		Funnel string `yaml:"funnel" json:"funnel"`
	} `yaml:"pipeline" json:"pipeline"`
	Listing struct {
		PageSize    int `yaml:"page_size" json:"page_size"`
		MaxPageSize int `yaml:"max_page_size" json:"max_page_size"`
	} `yaml:"listing" json:"listing"`
	Scheduling struct {
		// Timezone interprets interview dates and times; "Local" or an IANA name.
		Timezone string `yaml:"timezone" json:"timezone"`
	} `yaml:"scheduling" json:"scheduling"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run hl company init first", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Company.ID == "" {
		return fmt.Errorf("config.company.id is required")
	}
	switch c.Pipeline.Funnel {
	case "free", "strict":
	default:
		return fmt.Errorf("config.pipeline.funnel must be 'free' or 'strict'")
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("config.listing.page_size must be positive")
	}
	if c.Listing.MaxPageSize < c.Listing.PageSize {
		return fmt.Errorf("config.listing.max_page_size must be >= page_size")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.scheduling.timezone: %w", err)
	}
	return nil
}

// Location resolves the configured scheduling timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Scheduling.Timezone
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "hireline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(companyID string) string {
	return fmt.Sprintf(defaultTemplate, companyID, companyID)
}

// Default returns the default Config struct for a company.
func Default(companyID string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(companyID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `company:
  id: %s
  name: %s

pipeline:
  # free: any status reachable from a non-terminal state
  # strict: forward-only funnel, rejected reachable from any non-terminal state
  funnel: free

listing:
  page_size: 10
  max_page_size: 100

scheduling:
  timezone: Local
`
