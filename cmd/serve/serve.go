package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sig-0/ufrates/cmd/env"
	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/registry"
	"github.com/sig-0/ufrates/resolver"
	"github.com/sig-0/ufrates/server"
	"github.com/sig-0/ufrates/server/config"
	"github.com/sig-0/ufrates/storage/memory"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	listenAddress string
	configPath    string
	logLevel      string
}

// NewServeCmd creates the serve command
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve [flags]",
		LongHelp:   "Serves the ufrates API",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		fmt.Sprintf("the IP:PORT URL for the server (default %s)", config.DefaultListenAddress),
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)

	fs.StringVar(
		&c.logLevel,
		"log-level",
		slog.LevelInfo.String(),
		"the log level (debug, info, warn, error)",
	)
}

// exec executes the serve command
func (c *serveCfg) exec(ctx context.Context, _ []string) error {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return fmt.Errorf("invalid log level, %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	// Read the server configuration, if any
	if c.configPath != "" {
		serverCfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read server config, %w", err)
		}

		c.config = serverCfg
	}

	// The flag takes precedence over the config file
	if c.listenAddress != "" {
		c.config.ListenAddress = c.listenAddress
	}

	if err := config.ValidateConfig(c.config); err != nil {
		return fmt.Errorf("invalid server config, %w", err)
	}

	settings, err := c.config.Settings()
	if err != nil {
		return fmt.Errorf("unable to parse UF settings, %w", err)
	}

	// Create the settings registry
	reg, err := registry.New(settings)
	if err != nil {
		return fmt.Errorf("unable to create registry, %w", err)
	}

	// Create the resolution cache
	store, err := memory.NewStorage(settings.Cache.Capacity, nil)
	if err != nil {
		return fmt.Errorf("unable to create cache, %w", err)
	}

	// Create the page fetcher
	fetcher := sii.NewFetcher(fetcherOptions(c.config.Source, logger)...)
	defer func() {
		if closeErr := fetcher.Close(); closeErr != nil {
			logger.Warn("unable to close fetcher", "err", closeErr)
		}
	}()

	// Set up the metrics registry
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r, err := resolver.New(
		reg,
		fetcher,
		store,
		resolver.WithLogger(logger),
		resolver.WithURLTemplate(c.config.URLTemplate()),
		resolver.WithRegisterer(metricsReg),
	)
	if err != nil {
		return fmt.Errorf("unable to create resolver, %w", err)
	}

	s, err := server.New(
		r,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithMetricsGatherer(metricsReg),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return s.Serve(gCtx)
	})

	return group.Wait()
}

// fetcherOptions returns the fetcher options for the source config
func fetcherOptions(src *config.Source, logger *slog.Logger) []sii.FetcherOption {
	opts := []sii.FetcherOption{
		sii.WithFetcherLogger(logger),
	}

	if src != nil && src.RateLimit > 0 {
		burst := max(src.Burst, 1)

		opts = append(opts, sii.WithRateLimit(rate.Limit(src.RateLimit), burst))
	}

	return opts
}
