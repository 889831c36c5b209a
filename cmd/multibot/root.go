package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "multibot",
	Short: "multibot is a keyword-driven chat bot for Discord, Telegram and Twitch",
	Long: `multibot connects the same set of command handlers to several chat
platforms (Discord, Telegram, Twitch) at once. Incoming messages are matched
against handler keywords with fuzzy scoring, so commands work in natural
language instead of slash syntax, and moderation actions (ban, mute, delete)
are tracked and reversed when their sentence expires.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
