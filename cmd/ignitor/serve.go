package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Boot the application and serve HTTP on HOST:PORT",
		Long: `Boot the application and serve HTTP.

The listen address comes from the HOST and PORT variables of the
application's environment (.env file or process environment).
SIGINT or SIGTERM stops the server gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newBootstrap(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.close(context.WithoutCancel(ctx))

			return rt.ignitor.FireHTTPServer(ctx, nil)
		},
	}
}
