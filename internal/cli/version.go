package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/five82/datamate"

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the datamate version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "datamate %s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
