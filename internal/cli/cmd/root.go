package cmd

import (
	"github.com/spf13/cobra"
)

// RegisterCommands adds every fleetctl subcommand to the root command.
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewSubmitCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewTasksCommand())
	rootCmd.AddCommand(NewCancelCommand())
	rootCmd.AddCommand(NewApprovalCommand())
}
