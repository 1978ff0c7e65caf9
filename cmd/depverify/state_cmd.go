package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rksv-go/depverify/cluster"
	"github.com/rksv-go/depverify/statefile"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Emit an empty cluster state document to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := statefile.Encode(cluster.New())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
