package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"aerial/internal/api"
	"aerial/internal/config"
)

type commandContext struct {
	configFlag *string
	bindFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, bindFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		bindFlag:   bindFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client for the daemon, honoring the --bind override.
func (c *commandContext) client() (*api.Client, error) {
	if c.bindFlag != nil && strings.TrimSpace(*c.bindFlag) != "" {
		return api.NewClient(strings.TrimSpace(*c.bindFlag)), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Paths.APIBind), nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var bindFlag string

	ctx := newCommandContext(&configFlag, &bindFlag)

	rootCmd := &cobra.Command{
		Use:           "aerial",
		Short:         "Aerial IPTV channel manager CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&bindFlag, "bind", "", "Daemon API address (host:port)")

	rootCmd.AddCommand(newSubscriptionCommand(ctx))
	rootCmd.AddCommand(newChannelCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newTaskCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
