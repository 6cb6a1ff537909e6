package main

import (
	"github.com/spf13/cobra"
)

func newAceCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ace [command] [args...]",
		Short: "Boot the application in command mode and run a command",
		Long: `Boot the application with its ace providers and commands registered, then
run the given command. Everything from the command name on is passed to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newBootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer rt.close(cmd.Context())

			return rt.ignitor.FireCommand(cmd.Context(), args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
