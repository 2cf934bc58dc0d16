package main

import (
	"fmt"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/spf13/cobra"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List phonemization engines and their availability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, info := range backend.ProbeAll(cmd.Context()) {
				status := "unavailable"
				if info.Available {
					status = "available"
				}
				if info.Version != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-12s %s\n", info.Name, status, info.Version)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", info.Name, status)
				}
			}
			return nil
		},
	}
}
