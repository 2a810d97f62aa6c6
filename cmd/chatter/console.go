package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/internal/core"
	"github.com/keepmind9/chatter/internal/demo"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/spf13/cobra"
)

var (
	consoleUser     string
	consoleName     string
	consoleLogLevel string
	consoleLogFile  string
)

var hintStyle = lipgloss.NewStyle().Foreground(bot.DefaultConsoleTheme.Dim)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot in the terminal",
	Long: `Read messages from stdin and print the bot's replies, one conversation
for the whole session. Try "math help", "parent ask" or "parent choose".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(logger.Config{Level: consoleLogLevel, File: consoleLogFile}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return runConsole(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), consoleUser, consoleName)
	},
}

// runConsole serves one console conversation until in is exhausted or ctx
// is cancelled, then waits for pending replies.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, user, name string) error {
	console := bot.NewConsoleBot(in, out, user, name)

	b, err := core.NewBot(core.BotOptions{CreateMessageHandler: demo.NewHandler})
	if err != nil {
		return err
	}
	b.RegisterAdapter(constants.PlatformConsole, console)

	fmt.Fprintln(out, hintStyle.Render("Type a message and press enter. Ctrl+D quits."))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-console.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return b.Run(ctx)
}

func init() {
	consoleCmd.Flags().StringVarP(&consoleUser, "user", "u", "you", "User name attached to console messages")
	consoleCmd.Flags().StringVarP(&consoleName, "name", "n", core.DefaultBotName, "Bot name shown before replies")
	consoleCmd.Flags().StringVar(&consoleLogLevel, "log-level", "warn", "Log level")
	consoleCmd.Flags().StringVar(&consoleLogFile, "log-file", "", "Log file path (logs are discarded when empty)")
}
