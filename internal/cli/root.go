package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/netclient/version"
)

// errSilent signals a failure that was already reported to the user.
var errSilent = errors.New("silent")

// NewRootCmd builds the netclient command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(g *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:     version.Product,
		Short:   "Declarative HTTP client with stubbing and a fixture mock server",
		Version: version.Version,
		Long: `netclient executes HTTP targets described in YAML files. Targets can run
live, from fixtures (immediately or after a delay), or against a mock
server that serves the same fixtures over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "config file (default: search standard locations)")
	pf.StringVar(&g.envFile, "env-file", "", ".env file")
	pf.StringVar(&g.logLevel, "log-level", "", "log level override")
	pf.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRequestCmd(g), newMockCmd(g), newVersionCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
