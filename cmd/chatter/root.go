package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatter",
	Short: "chatter routes chat messages through composable message handlers",
	Long: `chatter connects chat platforms (Discord, Telegram, Feishu, DingTalk)
to a tree of message handlers: matchers, argument parsers, commands with
generated help, and conversations that remember a pending dialog between
messages.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
