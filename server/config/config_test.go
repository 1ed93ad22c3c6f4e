package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/registry"
)

func TestConfig_ValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("invalid listen address", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ListenAddress = "rando-address" // doesn't follow the format

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidListenAddress)
	})

	t.Run("invalid url template", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Source.URLTemplate = "https://www.sii.cl/uf.htm" // no {year}

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidURLTemplate)
	})

	t.Run("negative rate limit", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Source.RateLimit = -1

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidRateLimit)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.UF.TotalTimeout = "soon"

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidTimeout)
	})

	t.Run("non positive timeout", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.UF.ConnectTimeout = "-1s"

		assert.ErrorIs(t, ValidateConfig(cfg), registry.ErrInvalidTimeouts)
	})

	t.Run("invalid min date", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.UF.MinDate = "01/01/2013"

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidMinDate)
	})

	t.Run("invalid cache capacity", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.UF.CacheCapacity = -5

		assert.ErrorIs(t, ValidateConfig(cfg), registry.ErrInvalidCapacity)
	})

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateConfig(DefaultConfig()))
	})

	t.Run("valid configuration without sections", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateConfig(&Config{ListenAddress: DefaultListenAddress}))
	})
}

func TestConfig_Settings(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		settings, err := DefaultConfig().Settings()
		require.NoError(t, err)

		assert.Equal(t, registry.DefaultSettings(), settings)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{
			UF: &UF{
				TableID:        "uf_table",
				TotalTimeout:   "3s",
				MinDate:        "2020-06-01",
				CacheCapacity:  7,
				ConnectTimeout: "",
			},
		}

		settings, err := cfg.Settings()
		require.NoError(t, err)

		assert.Equal(t, "uf_table", settings.Selectors.TableID)
		assert.Equal(t, registry.DefaultBodyTag, settings.Selectors.BodyTag)
		assert.Equal(t, 3*time.Second, settings.Timeouts.Total)
		assert.Equal(t, registry.DefaultConnectTimeout, settings.Timeouts.Connect)
		assert.Equal(t, time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC), settings.Dates.MinDate)
		assert.Equal(t, 7, settings.Cache.Capacity)
		assert.Equal(t, registry.DefaultUserAgent, settings.Header.UserAgent)
	})

	t.Run("url template", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, sii.DefaultURLTemplate, (&Config{}).URLTemplate())

		cfg := DefaultConfig()
		cfg.Source.URLTemplate = "http://localhost/uf{year}.htm"

		assert.Equal(t, "http://localhost/uf{year}.htm", cfg.URLTemplate())
	})
}

func TestConfig_Read(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))

		assert.Error(t, err)
	})

	t.Run("partial file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")

		content := `
[source]
url_template = "http://localhost:8080/uf{year}.htm"
rate_limit = 2.5
burst = 3

[uf]
table_id = "values"
min_date = "2015-01-01"
`

		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Read(path)
		require.NoError(t, err)

		assert.Equal(t, DefaultListenAddress, cfg.ListenAddress)
		assert.Nil(t, cfg.CORSConfig)

		require.NotNil(t, cfg.Source)
		assert.Equal(t, "http://localhost:8080/uf{year}.htm", cfg.Source.URLTemplate)
		assert.Equal(t, 2.5, cfg.Source.RateLimit)
		assert.Equal(t, 3, cfg.Source.Burst)

		require.NoError(t, ValidateConfig(cfg))

		settings, err := cfg.Settings()
		require.NoError(t, err)

		assert.Equal(t, "values", settings.Selectors.TableID)
		assert.Equal(t, 2015, settings.Dates.MinYear())
	})

	t.Run("write then read", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")

		require.NoError(t, Write(DefaultConfig(), path))

		cfg, err := Read(path)
		require.NoError(t, err)

		assert.Equal(t, DefaultConfig(), cfg)
	})
}
