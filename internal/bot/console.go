package bot

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
)

// ConsoleChannel is the channel of every console message.
const ConsoleChannel = "console"

// ConsoleTheme defines the colors of console output.
type ConsoleTheme struct {
	Primary lipgloss.Color // Bot name
	Dim     lipgloss.Color // Continuation lines
}

// DefaultConsoleTheme is the default console theme.
var DefaultConsoleTheme = ConsoleTheme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

type consoleStyles struct {
	name lipgloss.Style
	body lipgloss.Style
}

func newConsoleStyles(t ConsoleTheme) consoleStyles {
	return consoleStyles{
		name: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		body: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// ConsoleBot implements Adapter over a line-oriented reader and writer,
// typically stdin and stdout. Each non-blank input line is one message.
type ConsoleBot struct {
	receiver

	in     io.Reader
	userID string
	name   string
	styles consoleStyles

	outMu sync.Mutex
	out   io.Writer

	done     chan struct{}
	doneOnce sync.Once
}

// NewConsoleBot creates a console adapter. Replies are labelled with name.
func NewConsoleBot(in io.Reader, out io.Writer, userID, name string) *ConsoleBot {
	return &ConsoleBot{
		in:     in,
		out:    out,
		userID: userID,
		name:   name,
		styles: newConsoleStyles(DefaultConsoleTheme),
		done:   make(chan struct{}),
	}
}

// Start reads input lines in the background until EOF.
func (c *ConsoleBot) Start(onMessage func(Message)) error {
	c.SetMessageHandler(onMessage)
	go c.readLoop()
	return nil
}

func (c *ConsoleBot) readLoop() {
	defer c.finish()

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.deliver(Message{
			Platform:  constants.PlatformConsole,
			UserID:    c.userID,
			Channel:   ConsoleChannel,
			Text:      line,
			Timestamp: time.Now(),
		})
	}
	if err := scanner.Err(); err != nil {
		logger.WithField("error", err).Error("console-read-failed")
	}
}

// Done is closed when input is exhausted or the adapter is stopped.
func (c *ConsoleBot) Done() <-chan struct{} {
	return c.done
}

// SendMessage writes text under the bot's name. The channel is ignored.
func (c *ConsoleBot) SendMessage(_ string, text string) error {
	lines := strings.Split(text, "\n")

	var b strings.Builder
	prefix := c.styles.name.Render(c.name + ">")
	indent := strings.Repeat(" ", lipgloss.Width(prefix))
	for i, line := range lines {
		if i == 0 {
			fmt.Fprintf(&b, "%s %s\n", prefix, line)
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", indent, c.styles.body.Render(line))
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := io.WriteString(c.out, b.String()); err != nil {
		return fmt.Errorf("failed to write console message: %w", err)
	}
	return nil
}

// Stop marks the adapter done. A read blocked on the input is abandoned.
func (c *ConsoleBot) Stop() error {
	c.finish()
	return nil
}

func (c *ConsoleBot) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}
