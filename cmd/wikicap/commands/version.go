package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wikicap/wikicap/internal/version"
)

// BuildVersionCmd returns a cobra command that prints the build version
func BuildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wikicap %s\n", version.String())
			return nil
		},
	}
}
