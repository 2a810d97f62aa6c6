package handler

import (
	"context"
	"fmt"
	"strings"
)

// CommandOptions configures a Command.
type CommandOptions struct {
	// Name routes messages that start with it (case-insensitive) to the
	// command. A name may contain spaces.
	Name    string
	Aliases []string
	// Usage is appended to the command path in usage text. UsageFunc, when
	// set, receives the command path and returns the full usage instead.
	Usage       string
	UsageFunc   func(path string) string
	Description string
	Details     string
	// IsParent appends a "help" sub-command and an "unknown command"
	// fallback after the children.
	IsParent bool
	Handler  Handler
}

// Command is a Matcher-like handler with name routing, nested sub-commands
// and generated help.
type Command struct {
	name        string
	aliases     []string
	usage       string
	usageFunc   func(path string) string
	description string
	details     string
	isParent    bool

	subCommands []*Command
	handler     Handler
}

// NewCommand creates a Command. Sub-commands are the Commands among its
// direct children.
func NewCommand(opts CommandOptions, children ...Handler) (*Command, error) {
	h, err := childrenOf("command", opts.Handler, children)
	if err != nil {
		return nil, err
	}

	c := &Command{
		name:        strings.TrimSpace(opts.Name),
		aliases:     opts.Aliases,
		usage:       opts.Usage,
		usageFunc:   opts.UsageFunc,
		description: opts.Description,
		details:     opts.Details,
		isParent:    opts.IsParent,
		subCommands: directCommands(h),
	}

	all := Set{h}
	if c.isParent {
		help, err := NewCommand(CommandOptions{
			Name:        "help",
			Description: "Get help for the specified command.",
			Usage:       "[command]",
		}, Func(c.handleHelp))
		if err != nil {
			return nil, err
		}
		all = append(all, help, Func(c.handleFallback))
	}

	c.handler = all
	if c.name != "" || len(c.aliases) > 0 {
		var routes Set
		for _, n := range c.names() {
			routes = append(routes, &Matcher{match: n, children: all})
		}
		if c.name == "" {
			routes = append(routes, all)
		}
		c.handler = routes
	}

	return c, nil
}

func directCommands(h Handler) []*Command {
	switch v := h.(type) {
	case *Command:
		return []*Command{v}
	case Set:
		var cmds []*Command
		for _, member := range v {
			if cmd, ok := member.(*Command); ok {
				cmds = append(cmds, cmd)
			}
		}
		return cmds
	}
	return nil
}

// HandleMessage implements Handler.
func (c *Command) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	return Evaluate(ctx, c.handler, msg, extra...)
}

// Name returns the command name.
func (c *Command) Name() string { return c.name }

// Description returns the command description.
func (c *Command) Description() string { return c.description }

// SubCommands returns the commands among the direct children.
func (c *Command) SubCommands() []*Command { return c.subCommands }

func (c *Command) hasSubCommands() bool {
	return len(c.subCommands) > 0
}

// names returns the non-empty name followed by the aliases.
func (c *Command) names() []string {
	var names []string
	if c.name != "" {
		names = append(names, c.name)
	}
	for _, a := range c.aliases {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return names
}

func (c *Command) displayName() string {
	if names := c.names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Usage composes the usage text for this command reached at path.
func (c *Command) Usage(path string) string {
	switch {
	case c.usageFunc != nil:
		return c.usageFunc(path)
	case c.usage != "":
		return joinWords(path, c.usage)
	case c.hasSubCommands():
		return joinWords(path, "<command>")
	}
	return path
}

// GetMatchingSubCommand walks the sub-command tree along the words of search.
// It returns the deepest command fully resolved, whether every word was
// consumed, and the command path (this command's name followed by the
// resolved sub-command names).
func (c *Command) GetMatchingSubCommand(search string) (*Command, bool, string) {
	cmd, exact, names := c.matchSubCommand(strings.Fields(search))
	return cmd, exact, joinWords(append([]string{c.name}, names...)...)
}

func (c *Command) matchSubCommand(tokens []string) (*Command, bool, []string) {
	cur := c
	var names []string
	for i := 0; i < len(tokens); {
		sub, n := cur.findSubCommand(tokens[i:])
		if sub == nil {
			return cur, false, names
		}
		cur = sub
		names = append(names, sub.displayName())
		i += n
	}
	return cur, true, names
}

// findSubCommand returns the sub-command whose name or alias spans the most
// leading tokens, and that span.
func (c *Command) findSubCommand(tokens []string) (*Command, int) {
	var best *Command
	bestN := 0
	for _, sub := range c.subCommands {
		for _, name := range sub.names() {
			words := lowerFields(name)
			if len(words) <= bestN || len(words) > len(tokens) {
				continue
			}
			if wordsEqualFold(words, tokens[:len(words)]) {
				best, bestN = sub, len(words)
			}
		}
	}
	return best, bestN
}

func wordsEqualFold(words, tokens []string) bool {
	for i, w := range words {
		if !strings.EqualFold(w, tokens[i]) {
			return false
		}
	}
	return true
}

func (c *Command) formatUsage(path string) string {
	usage := c.Usage(path)
	if usage == "" {
		return ""
	}
	return fmt.Sprintf("Usage: `%s`", usage)
}

func (c *Command) helpLines(path string) []any {
	lines := []any{c.description, c.details, c.formatUsage(path)}
	if !c.hasSubCommands() {
		return lines
	}
	list := make([]any, 0, len(c.subCommands))
	for _, sub := range c.subCommands {
		name := sub.displayName()
		if name == "" {
			continue
		}
		entry := fmt.Sprintf("> *%s*", name)
		if len(sub.aliases) > 0 && sub.name != "" {
			entry += fmt.Sprintf(" (%s)", strings.Join(sub.aliases, ", "))
		}
		if sub.description != "" {
			entry += " - " + sub.description
		}
		list = append(list, entry)
	}
	return append(lines, "*Commands:*", list)
}

// handleHelp answers "help [path...]" with help for the deepest matching
// sub-command, flagging paths that did not fully resolve.
func (c *Command) handleHelp(_ context.Context, msg Message, _ ...any) (Result, error) {
	search, err := Text(msg)
	if err != nil {
		return NoMatch(), err
	}
	cmd, exact, path := c.GetMatchingSubCommand(search)

	var lines []any
	if !exact {
		lines = append(lines, fmt.Sprintf("Unknown command *%s*.", joinWords(c.name, search)))
		lines = append(lines, fmt.Sprintf("Here is the help for *%s*:", orTopLevel(path)))
	}
	lines = append(lines, cmd.helpLines(path)...)
	return Value(lines), nil
}

// handleFallback runs when no child or help matched.
func (c *Command) handleFallback(_ context.Context, msg Message, _ ...any) (Result, error) {
	text, err := Text(msg)
	if err != nil {
		return NoMatch(), err
	}
	text = strings.TrimSpace(text)
	cmd, exact, names := c.matchSubCommand(strings.Fields(text))
	path := joinWords(append([]string{c.name}, names...)...)

	var lines []any
	if text != "" && !exact {
		lines = append(lines, fmt.Sprintf("Unknown command *%s*.", joinWords(c.name, text)))
	}
	usage := cmd.formatUsage(path)
	try := "Try"
	if usage != "" {
		lines = append(lines, usage)
		try = "Or try"
	}
	helpPath := joinWords(append([]string{c.name, "help"}, names...)...)
	lines = append(lines, fmt.Sprintf("%s *%s* for more information.", try, helpPath))
	return Value(lines), nil
}

func orTopLevel(path string) string {
	if path == "" {
		return "all commands"
	}
	return path
}

func joinWords(parts ...string) string {
	var words []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			words = append(words, p)
		}
	}
	return strings.Join(words, " ")
}
