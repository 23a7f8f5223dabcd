package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/kbukum/netclient/config"
	"github.com/kbukum/netclient/fixture"
	"github.com/kbukum/netclient/logger"
	"github.com/kbukum/netclient/mockserver"
	"github.com/kbukum/netclient/netclient"
	"github.com/kbukum/netclient/observability"
	"github.com/kbukum/netclient/version"
)

// AppConfig is the netclient binary configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client        netclient.Config     `yaml:"client" mapstructure:"client"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Mock          mockserver.Config    `yaml:"mock" mapstructure:"mock"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults(version.Product)
	c.Client.ApplyDefaults()
	c.Observability.ApplyDefaults(c.Name)
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = version.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Mock.ApplyDefaults()
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	return errors.Join(
		c.ServiceConfig.Validate(),
		c.Client.Validate(),
		c.Observability.Validate(),
		c.Mock.Validate(),
	)
}

// globalOptions are the persistent flags shared by all commands.
type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
	noColor    bool
	fs         afero.Fs
}

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg     AppConfig
	log     *logger.Logger
	fs      afero.Fs
	metrics *observability.Metrics
	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts *globalOptions) (*app, error) {
	fs := opts.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	loaderOpts := []config.LoaderOption{config.WithFileSystem(fs)}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}

	var cfg AppConfig
	if err := config.Load(version.Product, &cfg, loaderOpts...); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.noColor {
		cfg.Logging.NoColor = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging)
	a := &app{cfg: cfg, log: logger.WithComponent("cli"), fs: fs}

	if cfg.Observability.Enabled {
		if err := a.initObservability(ctx); err != nil {
			_ = a.close(ctx)
			return nil, err
		}
	}
	return a, nil
}

func (a *app) initObservability(ctx context.Context) error {
	tp, err := observability.InitTracer(ctx, a.cfg.Observability)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, a.cfg.Observability)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	a.metrics, err = observability.NewMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// close flushes exporters in reverse order of initialization.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.WithoutCancel(ctx)); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// clientOptions wires the app's logger, metrics and file system into a
// client built from cfg.
func (a *app) clientOptions(cfg netclient.Config) []netclient.Option {
	opts := []netclient.Option{netclient.WithLogger(logger.WithComponent("netclient"))}
	if cfg.Fixtures.Dir != "" {
		opts = append(opts, netclient.WithFixtures(fixture.NewFS(a.fs, cfg.Fixtures.Dir, cfg.Fixtures.Extension)))
	}
	if a.metrics != nil {
		opts = append(opts, netclient.WithMetrics(a.metrics))
	}
	return opts
}
