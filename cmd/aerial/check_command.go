package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aerial/internal/api"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "check <channel-id>...",
		Short: "Run a deep stream check over the given channels",
		Long: "Probes each channel with FFmpeg, capturing a still frame to " +
			"verify the stream actually plays. Results are written back to " +
			"the channel records; failing channels are disabled unless " +
			"configured otherwise.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			started, err := client.StartCheck(cmd.Context(), ids)
			if err != nil {
				return err
			}
			cmd.Printf("check task: %s\n", started.TaskID)
			if !wait {
				return nil
			}
			return waitForTask(cmd, client, started.TaskID)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the check to finish, printing progress")
	return cmd
}

func waitForTask(cmd *cobra.Command, client *api.Client, taskID string) error {
	colorized := shouldColorize(os.Stdout)
	lastMessage := ""
	for {
		task, err := client.GetTask(cmd.Context(), taskID)
		if err != nil {
			return err
		}
		if task.Message != lastMessage {
			lastMessage = task.Message
			cmd.Printf("%3d%% %s\n", task.Progress, task.Message)
		}
		switch task.Status {
		case "success":
			cmd.Println(colorize("done", ansiGreen, colorized))
			return nil
		case "failure":
			return fmt.Errorf("task failed: %s", task.Message)
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
