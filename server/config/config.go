package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/registry"
)

const (
	DefaultListenAddress = "0.0.0.0:8545"

	// MinDateLayout is the layout of the configured minimum date
	MinDateLayout = time.DateOnly
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidURLTemplate   = errors.New("invalid source URL template")
	ErrInvalidRateLimit     = errors.New("invalid source rate limit")
	ErrInvalidTimeout       = errors.New("invalid timeout")
	ErrInvalidMinDate       = errors.New("invalid minimum date")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The UF source page config
	Source *Source `toml:"source"`

	// The UF lookup config. Unset fields keep their defaults
	UF *UF `toml:"uf"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// Source defines where UF pages are fetched from
type Source struct {
	// The yearly page URL, with a {year} placeholder
	URLTemplate string `toml:"url_template"`

	// Outbound requests per second. 0 is unlimited
	RateLimit float64 `toml:"rate_limit"`

	// Outbound request burst, when rate limited
	Burst int `toml:"burst"`
}

// UF defines how UF values are located and cached
type UF struct {
	TableID string `toml:"table_id"`
	BodyTag string `toml:"body_tag"`
	RowTag  string `toml:"row_tag"`
	CellTag string `toml:"cell_tag"`

	// Go durations, e.g. "15s"
	TotalTimeout   string `toml:"total_timeout"`
	ConnectTimeout string `toml:"connect_timeout"`

	// Format: YYYY-MM-DD
	MinDate   string `toml:"min_date"`
	UserAgent string `toml:"user_agent"`

	CacheCapacity int `toml:"cache_capacity"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Source:        DefaultSourceConfig(),
		UF:            DefaultUFConfig(),
	}
}

// DefaultSourceConfig returns the default source configuration
func DefaultSourceConfig() *Source {
	return &Source{
		URLTemplate: sii.DefaultURLTemplate,
		RateLimit:   0,
		Burst:       1,
	}
}

// DefaultUFConfig returns the default UF lookup configuration
func DefaultUFConfig() *UF {
	return &UF{
		TableID:        registry.DefaultTableID,
		BodyTag:        registry.DefaultBodyTag,
		RowTag:         registry.DefaultRowTag,
		CellTag:        registry.DefaultCellTag,
		TotalTimeout:   registry.DefaultTotalTimeout.String(),
		ConnectTimeout: registry.DefaultConnectTimeout.String(),
		MinDate:        registry.DefaultMinDate.Format(MinDateLayout),
		UserAgent:      registry.DefaultUserAgent,
		CacheCapacity:  registry.DefaultCapacity,
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the source
	if src := config.Source; src != nil {
		if src.URLTemplate != "" {
			if err := sii.ValidateURLTemplate(src.URLTemplate); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidURLTemplate, err)
			}
		}

		if src.RateLimit < 0 || src.Burst < 0 {
			return ErrInvalidRateLimit
		}
	}

	// Validate the UF lookup settings
	settings, err := config.Settings()
	if err != nil {
		return err
	}

	return settings.Validate()
}

// Settings returns the registry settings described by the config,
// falling back to the defaults for unset fields
func (c *Config) Settings() (registry.Settings, error) {
	settings := registry.DefaultSettings()

	if c.UF == nil {
		return settings, nil
	}

	setString(&settings.Selectors.TableID, c.UF.TableID)
	setString(&settings.Selectors.BodyTag, c.UF.BodyTag)
	setString(&settings.Selectors.RowTag, c.UF.RowTag)
	setString(&settings.Selectors.CellTag, c.UF.CellTag)
	setString(&settings.Header.UserAgent, c.UF.UserAgent)

	if err := setDuration(&settings.Timeouts.Total, c.UF.TotalTimeout); err != nil {
		return registry.Settings{}, err
	}

	if err := setDuration(&settings.Timeouts.Connect, c.UF.ConnectTimeout); err != nil {
		return registry.Settings{}, err
	}

	if c.UF.MinDate != "" {
		minDate, err := time.Parse(MinDateLayout, c.UF.MinDate)
		if err != nil {
			return registry.Settings{}, fmt.Errorf("%w: %w", ErrInvalidMinDate, err)
		}

		settings.Dates.MinDate = minDate
	}

	if c.UF.CacheCapacity != 0 {
		settings.Cache.Capacity = c.UF.CacheCapacity
	}

	return settings, nil
}

// URLTemplate returns the configured source URL template
func (c *Config) URLTemplate() string {
	if c.Source == nil || c.Source.URLTemplate == "" {
		return sii.DefaultURLTemplate
	}

	return c.Source.URLTemplate
}

// Read reads the configuration from the given path
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	return &cfg, nil
}

// Write writes the configuration, as TOML, to the given path
func Write(config *Config, path string) error {
	content, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("unable to marshal config, %w", err)
	}

	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("unable to write config, %w", err)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTimeout, err)
	}

	*dst = d

	return nil
}
