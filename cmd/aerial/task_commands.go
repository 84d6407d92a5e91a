package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect background tasks",
	}
	cmd.AddCommand(newTaskListCommand(ctx))
	cmd.AddCommand(newTaskShowCommand(ctx))
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			tasksList, err := client.ListTasks(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(tasksList) == 0 {
				cmd.Println("no tasks")
				return nil
			}
			colorized := shouldColorize(os.Stdout)
			rows := make([][]string, 0, len(tasksList))
			for _, task := range tasksList {
				rows = append(rows, []string{
					task.ID,
					task.Name,
					colorize(task.Status, taskStatusColor(task.Status), colorized),
					strconv.Itoa(task.Progress) + "%",
					task.Message,
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Name", "Status", "Progress", "Message"},
				rows, 4))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of tasks to show")
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			task, err := client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("id:       %s\n", task.ID)
			cmd.Printf("name:     %s\n", task.Name)
			cmd.Printf("status:   %s\n", task.Status)
			cmd.Printf("progress: %d%%\n", task.Progress)
			cmd.Printf("message:  %s\n", task.Message)
			cmd.Printf("updated:  %s\n", task.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
