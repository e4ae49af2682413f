package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veralabs/vera-live/pkg/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List archived sessions, or show one session's transcript",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		archive, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer archive.Close()

		if len(args) == 0 {
			sessions, err := archive.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no archived sessions")
				return nil
			}
			for _, s := range sessions {
				end := "still open"
				if s.EndedAt != nil {
					end = s.EndedAt.Local().Format("15:04:05")
				}
				fmt.Fprintf(os.Stdout, "%s  %s  %-6s  %s - %s\n",
					s.ID, s.SubjectID, s.Mode, s.StartedAt.Local().Format("2006-01-02 15:04:05"), end)
			}
			return nil
		}

		id := args[0]
		msgs, err := archive.Messages(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Fprintf(os.Stdout, "%s  [%s] %s\n", m.At.Local().Format("15:04:05"), m.Role, m.Text)
		}
		events, err := archive.ToolEvents(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Fprintf(os.Stdout, "%s  [tool] %s (%s) %s\n", ev.At.Local().Format("15:04:05"), ev.Tool, ev.Category, ev.Status)
		}
		if len(msgs) == 0 && len(events) == 0 {
			fmt.Println("nothing archived for that session")
		}
		return nil
	},
}
