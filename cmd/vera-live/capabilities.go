package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veralabs/vera-live/pkg/engine/capabilities"
)

var capsLimit int

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List what the assistant can do",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		caps, err := capabilities.NewClient(cfg.BaseURL, nil).List(cmd.Context(), capsLimit)
		if err != nil {
			return err
		}
		if len(caps) == 0 {
			fmt.Println("the assistant reported no capabilities")
			return nil
		}
		for _, c := range caps {
			fmt.Fprintf(os.Stdout, "- %s\n", c.Content)
		}
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().IntVar(&capsLimit, "limit", 50, "maximum capabilities to fetch")
}
