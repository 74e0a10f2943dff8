// Package announcer posts batch run summaries to an ops IRC channel.
package announcer

import (
	"context"
	"strings"

	"github.com/MyelinBots/bloom-go/internal/logger"
)

type Announcer interface {
	Announce(ctx context.Context, message string)
}

// IRCClient is the part of *irc.Conn the announcer needs.
type IRCClient interface {
	Privmsg(channel, message string)
}

type Nop struct{}

func (Nop) Announce(context.Context, string) {}

type IRC struct {
	client  IRCClient
	channel string
	log     *logger.Logger
}

func NewIRC(client IRCClient, channel string, baseLog *logger.Logger) *IRC {
	return &IRC{client: client, channel: channel, log: baseLog.With("component", "IRCAnnouncer")}
}

// Announce sends each line of message as its own PRIVMSG. Delivery is fire
// and forget.
func (a *IRC) Announce(ctx context.Context, message string) {
	if a.client == nil || a.channel == "" {
		return
	}
	for _, line := range strings.Split(message, "\n") {
		if ctx.Err() != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		a.client.Privmsg(a.channel, line)
	}
	a.log.Debug("announced", "channel", a.channel)
}
