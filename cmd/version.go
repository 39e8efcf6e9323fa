package cmd

import (
	"fmt"

	"github.com/claimstake/console/internal/version"
	"github.com/spf13/cobra"
)

var runVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the console",
	Run: func(cmd *cobra.Command, args []string) {
		v := version.GetVersion()
		commit := version.GetCommit()

		fmt.Printf("Version: %s\nCommit: %s\n", v, commit)
	},
}
