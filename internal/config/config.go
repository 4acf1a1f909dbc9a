// Package config loads the adsweep configuration file and overlays
// credentials from the environment. Passwords are never read from the
// YAML file, only from the environment or an optional .env file.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"adsweep/internal/ldap"
)

// Environment variable names recognized for credential overlay.
const (
	EnvUsername = "ADSWEEP_USERNAME"
	EnvPassword = "ADSWEEP_PASSWORD"
	EnvDomain   = "ADSWEEP_DOMAIN"
)

// Config is the full file configuration.
type Config struct {
	Connection Connection `yaml:"connection"`
	Audit      Audit      `yaml:"audit"`
	Logging    Logging    `yaml:"logging"`
}

// Connection configures the directory service client.
type Connection struct {
	Domain   string   `yaml:"domain"`
	URLs     []string `yaml:"urls"`
	BaseDN   string   `yaml:"base_dn"`
	Username string   `yaml:"username"`

	TimeoutSeconds int  `yaml:"timeout_seconds" default:"30"`
	StartTLS       bool `yaml:"start_tls" default:"true"`
	SkipTLS        bool `yaml:"skip_tls"`
	InsecureTLS    bool `yaml:"insecure_tls"`

	ClientCertFile string `yaml:"client_cert_file"`
	ClientKeyFile  string `yaml:"client_key_file"`

	KerberosRealm  string `yaml:"kerberos_realm"`
	KerberosKeytab string `yaml:"kerberos_keytab"`
	KerberosCCache string `yaml:"kerberos_ccache"`
	KerberosConfig string `yaml:"kerberos_config"`
	KerberosSPN    string `yaml:"kerberos_spn"`

	MaxConnections int `yaml:"max_connections" default:"4"`
	MaxRetries     int `yaml:"max_retries" default:"3"`
}

// Audit holds run defaults that CLI flags may override.
type Audit struct {
	ReportDir               string `yaml:"report_dir" default:"reports"`
	InactivityThresholdDays int    `yaml:"inactivity_threshold_days" default:"90"`
	ServiceAccountPattern   string `yaml:"service_account_pattern" default:"svc"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

// Load reads the configuration file at path (optional), applies struct
// defaults, and overlays credentials from the environment. A .env file in
// the working directory is honored when present.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	}

	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Connection.Username = v
	}
	if v := os.Getenv(EnvDomain); v != "" {
		cfg.Connection.Domain = v
	}

	return cfg, nil
}

// Password returns the bind password from the environment. The YAML file
// has no password field on purpose.
func Password() string {
	return os.Getenv(EnvPassword)
}

// ConnectionConfig maps the file configuration onto the LDAP client
// configuration.
func (c *Config) ConnectionConfig() *ldap.ConnectionConfig {
	conn := ldap.DefaultConfig()

	conn.Domain = c.Connection.Domain
	conn.LDAPURLs = c.Connection.URLs
	conn.BaseDN = c.Connection.BaseDN
	conn.Username = c.Connection.Username
	conn.Password = Password()

	if c.Connection.TimeoutSeconds > 0 {
		conn.Timeout = time.Duration(c.Connection.TimeoutSeconds) * time.Second
	}

	conn.UseTLS = c.Connection.StartTLS
	conn.SkipTLS = c.Connection.SkipTLS
	if c.Connection.InsecureTLS {
		conn.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	conn.TLSClientCertFile = c.Connection.ClientCertFile
	conn.TLSClientKeyFile = c.Connection.ClientKeyFile

	conn.KerberosRealm = c.Connection.KerberosRealm
	conn.KerberosKeytab = c.Connection.KerberosKeytab
	conn.KerberosCCache = c.Connection.KerberosCCache
	conn.KerberosConfig = c.Connection.KerberosConfig
	conn.KerberosSPN = c.Connection.KerberosSPN

	if c.Connection.MaxConnections > 0 {
		conn.MaxConnections = c.Connection.MaxConnections
	}
	if c.Connection.MaxRetries > 0 {
		conn.MaxRetries = c.Connection.MaxRetries
	}

	return conn
}
