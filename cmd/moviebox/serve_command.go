package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"moviebox/internal/daemon"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind != "" {
				cfg.API.Bind = bind
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			d, err := daemon.New(signalCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close()
			return d.Run(signalCtx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind")
	return cmd
}
