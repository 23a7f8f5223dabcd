package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/netclient/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), info.Short())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			if !info.IsRelease() {
				fmt.Fprintln(cmd.OutOrStdout(), "development build")
			}
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print the version only")
	return cmd
}
