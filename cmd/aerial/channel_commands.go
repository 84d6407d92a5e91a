package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Inspect and toggle channels",
	}
	cmd.AddCommand(newChannelListCommand(ctx))
	cmd.AddCommand(newChannelEnableCommand(ctx, true))
	cmd.AddCommand(newChannelEnableCommand(ctx, false))
	return cmd
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "list <subscription-id>",
		Short: "List the channels of a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subID, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			channels, err := client.SubscriptionChannels(cmd.Context(), subID)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(channels))
			for _, ch := range channels {
				if failedOnly && (ch.CheckStatus == nil || *ch.CheckStatus) {
					continue
				}
				rows = append(rows, []string{
					strconv.FormatInt(ch.ID, 10),
					ch.Name,
					ch.Group,
					formatEnabled(ch.Enabled),
					formatCheckStatus(ch),
					formatTime(ch.CheckDate),
				})
			}
			if len(rows) == 0 {
				cmd.Println("no channels")
				return nil
			}
			cmd.Println(renderTable(
				[]string{"ID", "Name", "Group", "Enabled", "Check", "Checked At"},
				rows, 1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show channels whose last check failed")
	return cmd
}

func newChannelEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable <id>...", "Enable channels"
	if !enable {
		use, short = "disable <id>...", "Disable channels"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := client.SetChannelEnabled(cmd.Context(), id, enable); err != nil {
					return err
				}
			}
			cmd.Printf("%d channels updated\n", len(args))
			return nil
		},
	}
}
