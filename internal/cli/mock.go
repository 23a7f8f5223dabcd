package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/netclient/fixture"
	"github.com/kbukum/netclient/logger"
	"github.com/kbukum/netclient/mockserver"
)

type mockOptions struct {
	routes   string
	host     string
	port     int
	fixtures string
	watch    bool
}

func newMockCmd(g *globalOptions) *cobra.Command {
	o := &mockOptions{}
	cmd := &cobra.Command{
		Use:     "mock",
		Short:   "Serve fixtures over HTTP for the mock_server stub mode",
		Example: `  netclient mock --routes routes.yaml --fixtures ./fixtures --port 8089`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMock(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.routes, "routes", "r", "", "route table YAML file (defaults to mock.routes_file)")
	f.StringVar(&o.host, "host", "", "listen host")
	f.IntVarP(&o.port, "port", "p", 0, "listen port")
	f.StringVar(&o.fixtures, "fixtures", "", "fixture directory (defaults to mock.fixtures_dir)")
	f.BoolVarP(&o.watch, "watch", "w", false, "reload routes when the route file changes")
	return cmd
}

func runMock(cmd *cobra.Command, g *globalOptions, o *mockOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(ctx) }()

	cfg := a.cfg.Mock
	if o.routes != "" {
		cfg.RoutesFile = o.routes
	}
	if o.fixtures != "" {
		cfg.FixturesDir = o.fixtures
	}
	if o.host != "" {
		cfg.Host = o.host
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if cfg.RoutesFile == "" {
		return fmt.Errorf("mock: no route file, set --routes or mock.routes_file")
	}

	mockserver.SetMode(a.log)
	server, err := newMockServer(a, cfg)
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	if o.watch {
		if err := server.Watch(ctx, a.fs, cfg.RoutesFile); err != nil {
			_ = server.Stop(context.WithoutCancel(ctx))
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "mock server listening on %s (%d routes)\n", server.URL(), len(server.Routes()))

	<-ctx.Done()
	return server.Stop(context.WithoutCancel(ctx))
}

func newMockServer(a *app, cfg mockserver.Config) (*mockserver.Server, error) {
	routes, err := mockserver.LoadRoutes(a.fs, cfg.RoutesFile)
	if err != nil {
		return nil, err
	}
	var fixtures fixture.Source = fixture.None
	if cfg.FixturesDir != "" {
		fixtures = fixture.NewFS(a.fs, cfg.FixturesDir, "")
	}
	return mockserver.New(cfg, routes, fixtures, logger.WithComponent("mockserver"))
}
