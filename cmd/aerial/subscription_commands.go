package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"aerial/internal/api"
)

func newSubscriptionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Manage subscription feeds",
	}
	cmd.AddCommand(newSubscriptionListCommand(ctx))
	cmd.AddCommand(newSubscriptionAddCommand(ctx))
	cmd.AddCommand(newSubscriptionUpdateCommand(ctx))
	cmd.AddCommand(newSubscriptionRemoveCommand(ctx))
	cmd.AddCommand(newSubscriptionRefreshCommand(ctx))
	return cmd
}

func newSubscriptionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscription feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			subs, err := client.ListSubscriptions(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				cmd.Println("no subscriptions")
				return nil
			}
			rows := make([][]string, 0, len(subs))
			for _, sub := range subs {
				interval := "-"
				if sub.AutoUpdateMinutes > 0 {
					interval = fmt.Sprintf("%dm", sub.AutoUpdateMinutes)
				}
				rows = append(rows, []string{
					strconv.FormatInt(sub.ID, 10),
					sub.Name,
					formatEnabled(sub.Enabled),
					interval,
					formatTime(sub.LastUpdated),
					sub.LastUpdateStatus,
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Name", "Enabled", "Auto", "Last Updated", "Status"},
				rows, 1))
			return nil
		},
	}
}

func newSubscriptionAddCommand(ctx *commandContext) *cobra.Command {
	var userAgent, headers string
	var autoMinutes int

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a subscription and start its first sync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			created, err := client.CreateSubscription(cmd.Context(), api.SubscriptionRequest{
				Name:              args[0],
				URL:               args[1],
				UserAgent:         userAgent,
				Headers:           headers,
				AutoUpdateMinutes: autoMinutes,
			})
			if err != nil {
				return err
			}
			cmd.Printf("subscription %d created\n", created.Subscription.ID)
			if created.TaskID != "" {
				cmd.Printf("initial sync task: %s\n", created.TaskID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header for feed fetches")
	cmd.Flags().StringVar(&headers, "headers", "", "Extra HTTP headers as a JSON object")
	cmd.Flags().IntVar(&autoMinutes, "auto-update", 0, "Auto refresh interval in minutes (0 disables)")
	return cmd
}

func newSubscriptionUpdateCommand(ctx *commandContext) *cobra.Command {
	var name, url, userAgent, headers string
	var autoMinutes int
	var enabled bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a subscription's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			req := api.SubscriptionRequest{
				Name:              name,
				URL:               url,
				UserAgent:         userAgent,
				Headers:           headers,
				AutoUpdateMinutes: autoMinutes,
			}
			if cmd.Flags().Changed("enabled") {
				req.Enabled = &enabled
			}
			if _, err := client.UpdateSubscription(cmd.Context(), id, req); err != nil {
				return err
			}
			cmd.Printf("subscription %d updated\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Subscription name")
	cmd.Flags().StringVar(&url, "url", "", "Feed URL (newline-separated for multiple sources)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header for feed fetches")
	cmd.Flags().StringVar(&headers, "headers", "", "Extra HTTP headers as a JSON object")
	cmd.Flags().IntVar(&autoMinutes, "auto-update", 0, "Auto refresh interval in minutes (0 disables)")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Whether the subscription is active")
	return cmd
}

func newSubscriptionRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a subscription and its channels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteSubscription(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("subscription %d deleted\n", id)
			return nil
		},
	}
}

func newSubscriptionRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Sync a subscription's channels from its feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one subscription id")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			started, err := client.RefreshSubscription(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Printf("sync task: %s\n", started.TaskID)
			return nil
		},
	}
}
