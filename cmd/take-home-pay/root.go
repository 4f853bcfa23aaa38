package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/iwvelando/take-home-pay/internal/authority"
	"github.com/iwvelando/take-home-pay/internal/cache"
	"github.com/iwvelando/take-home-pay/internal/calculator"
	"github.com/iwvelando/take-home-pay/internal/config"
	"github.com/iwvelando/take-home-pay/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	conf   *config.Configuration
	logger *zap.Logger

	out io.Writer
	in  io.Reader
}

func newRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	c := &cli{out: out, in: in}

	root := &cobra.Command{
		Use:               "take-home-pay",
		Short:             "Estimate take-home pay after federal income and payroll taxes",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetIn(in)

	root.PersistentFlags().StringVar(&c.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		c.calculateCmd(),
		c.compareCmd(),
		c.scheduleCmd(),
		c.interactiveCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	conf, err := c.loadConfiguration(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", c.configPath, err)
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initializeLogger(conf.Logging, c.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	c.conf = conf
	c.logger = logger
	return nil
}

// loadConfiguration falls back to built-in defaults when the default config
// file is absent. An explicitly named file must exist.
func (c *cli) loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(c.configPath); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.LoadConfiguration(c.configPath)
}

// resolveMode applies a --mode override on top of the configured mode.
func (c *cli) resolveMode(override string) (calculator.Mode, error) {
	mode := c.conf.Calculation.Mode
	if override != "" {
		mode = override
	}
	return calculator.ParseMode(mode)
}

// newCalculator builds a calculator from the loaded configuration. Delegation
// is enabled when an authority URL is configured. Delegated breakdowns are
// cached in Redis when enabled and reachable, and in memory otherwise. The
// returned cleanup releases the cache connection.
func (c *cli) newCalculator(ctx context.Context, opts ...calculator.Option) (*calculator.Calculator, func()) {
	cleanup := func() {}

	if c.conf.Delegation.BaseURL != "" {
		var authOpts []authority.Option
		if c.conf.Delegation.APIKey != "" {
			authOpts = append(authOpts, authority.WithAPIKey(c.conf.Delegation.APIKey))
		}
		client := authority.NewHTTPClient(c.logger, c.conf.Delegation.BaseURL, c.conf.Delegation.Timeout(), authOpts...)
		opts = append(opts, calculator.WithAuthority(client))

		store, closeCache := c.newCache(ctx)
		opts = append(opts, calculator.WithCache(store))
		cleanup = closeCache
	}

	return calculator.New(c.logger, c.conf.Schedule, opts...), cleanup
}

func (c *cli) newCache(ctx context.Context) (cache.Cache, func()) {
	if !c.conf.Cache.Enabled {
		return cache.NewMemoryCache(c.conf.Cache.TTL()), func() {}
	}

	redisCache := cache.NewRedisCache(c.logger, cache.RedisOptions{
		Address:  c.conf.Cache.Address,
		Password: c.conf.Cache.Password,
		DB:       c.conf.Cache.DB,
		TTL:      c.conf.Cache.TTL(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		c.logger.Warn("redis unavailable, caching breakdowns in memory",
			zap.String("op", "main.newCache"),
			zap.String("address", c.conf.Cache.Address),
			zap.Error(err),
		)
		_ = redisCache.Close()
		return cache.NewMemoryCache(c.conf.Cache.TTL()), func() {}
	}

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			c.logger.Warn("failed to close redis cache", zap.String("op", "main.newCache"), zap.Error(err))
		}
	}
}
