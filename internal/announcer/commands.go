package announcer

import (
	"context"
	"strings"
	"sync"

	"github.com/MyelinBots/bloom-go/internal/logger"
	irc "github.com/fluffle/goirc/client"
)

// CommandHandler answers one ops command. The returned text is posted back
// to the channel, one PRIVMSG per line.
type CommandHandler func(ctx context.Context, args []string) (string, error)

type CommandController struct {
	client   IRCClient
	channel  string
	mu       sync.RWMutex
	commands map[string]CommandHandler
	log      *logger.Logger
}

func NewCommandController(client IRCClient, channel string, baseLog *logger.Logger) *CommandController {
	return &CommandController{
		client:   client,
		channel:  channel,
		commands: make(map[string]CommandHandler),
		log:      baseLog.With("component", "OpsCommands"),
	}
}

func (c *CommandController) AddCommand(command string, handler CommandHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[strings.ToLower(command)] = handler
}

// HandleCommand parses a channel PRIVMSG and dispatches it. Lines from other
// targets and unknown commands are ignored.
func (c *CommandController) HandleCommand(ctx context.Context, line *irc.Line) error {
	if line == nil || len(line.Args) < 2 || !strings.EqualFold(line.Args[0], c.channel) {
		return nil
	}
	fields := strings.Fields(line.Args[1])
	if len(fields) == 0 {
		return nil
	}

	c.mu.RLock()
	handler, ok := c.commands[strings.ToLower(fields[0])]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	c.log.Debug("ops command", "nick", line.Nick, "command", fields[0])
	reply, err := handler(ctx, fields[1:])
	if err != nil {
		c.client.Privmsg(c.channel, line.Nick+": "+err.Error())
		return err
	}
	for _, l := range strings.Split(reply, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			c.client.Privmsg(c.channel, l)
		}
	}
	return nil
}
