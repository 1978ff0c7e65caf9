// Command depverify verifies RKSV Data Export Packages against a
// trusted key store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "depverify",
		Short:         "Verify RKSV cash register Data Export Packages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "log level (DEBUG, INFO, NOOP); overrides the config file")
	root.PersistentFlags().String("config", "", "path to a YAML defaults file")

	root.AddCommand(newStateCmd(), newVerifyCmd())
	return root
}
