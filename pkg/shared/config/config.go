package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

const (
	DefaultConfigFile = "config.yml"
	DefaultServerURL  = "http://localhost:8000/analyze"
	DefaultFixURL     = "http://localhost:8000/fix"
)

type Config struct {
	Logger     Logger     `yaml:"logger"`
	Analyzer   Analyzer   `yaml:"analyzer"`
	HTTPClient HTTPClient `yaml:"http_client"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Analyzer holds the remote analysis service settings. ServerURL and APIKey are
// forwarded as is.
type Analyzer struct {
	ServerURL string `yaml:"server_url"`
	FixURL    string `yaml:"fix_url"`
	APIKey    string `yaml:"api_key"`
	Semgrep   *bool  `yaml:"semgrep"`
	CodeQL    *bool  `yaml:"codeql"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig reads the YAML configuration from configPath.
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfig reads configPath and applies environment overrides. A missing
// file at the default location yields the built-in defaults.
func LoadConfig(configPath string, explicit bool) (*Config, error) {
	cfg, err := NewConfig(configPath)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
		}
		cfg = &Config{}
	}
	applyEnvironment(cfg)
	return cfg, nil
}

// applyEnvironment overrides analyzer settings from VSECURE_* variables.
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("VSECURE_SERVER_URL"); v != "" {
		cfg.Analyzer.ServerURL = v
	}
	if v := os.Getenv("VSECURE_FIX_URL"); v != "" {
		cfg.Analyzer.FixURL = v
	}
	if v := os.Getenv("VSECURE_API_KEY"); v != "" {
		cfg.Analyzer.APIKey = v
	} else if cfg.Analyzer.APIKey == "" {
		cfg.Analyzer.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
