package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and dependency availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			colorized := shouldColorize(os.Stdout)
			running := colorize("running", ansiGreen, colorized)
			if !status.Running {
				running = colorize("stopped", ansiRed, colorized)
			}
			cmd.Printf("daemon:        %s (pid %d)\n", running, status.PID)
			cmd.Printf("database:      %s\n", status.DatabasePath)
			cmd.Printf("lock file:     %s\n", status.LockFilePath)
			cmd.Printf("subscriptions: %d\n", status.Subscriptions)
			cmd.Printf("channels:      %d\n", status.Channels)

			if len(status.Dependencies) > 0 {
				cmd.Println("dependencies:")
				for _, dep := range status.Dependencies {
					mark := colorize("ok", ansiGreen, colorized)
					detail := dep.Command
					if !dep.Available {
						mark = colorize("missing", ansiRed, colorized)
						if dep.Detail != "" {
							detail = dep.Detail
						}
					}
					cmd.Printf("  %-10s %s  %s\n", dep.Name+":", mark, detail)
				}
			}
			return nil
		},
	}
}
