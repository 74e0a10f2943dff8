package announcer

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/MyelinBots/bloom-go/config"
	"github.com/MyelinBots/bloom-go/internal/logger"
	irc "github.com/fluffle/goirc/client"
)

type identified struct {
	sync.Mutex
	done bool
}

// Session owns the IRC connection behind an IRC announcer.
type Session struct {
	*IRC
	conn *irc.Conn
}

// Dial connects to the configured server and joins the ops channel. It
// returns once the connection is established; joining happens async.
func Dial(ctx context.Context, cfg config.IRCConfig, baseLog *logger.Logger) (*Session, error) {
	log := baseLog.With("component", "IRCSession")

	ircConfig := irc.NewConfig(cfg.Nick)
	ircConfig.SSL = cfg.SSL
	ircConfig.SSLConfig = &tls.Config{ServerName: cfg.Host}
	ircConfig.Server = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn := irc.Client(ircConfig)
	ident := &identified{}

	join := func(conn *irc.Conn, line *irc.Line) {
		conn.Join(cfg.Channel)
	}
	conn.HandleFunc(irc.CONNECTED, func(conn *irc.Conn, line *irc.Line) {
		log.Info("connected", "host", cfg.Host)
		conn.Join(cfg.Channel)
	})
	// some networks only accept JOIN after MOTD
	conn.HandleFunc("376", join)
	conn.HandleFunc("422", join)

	conn.HandleFunc(irc.JOIN, func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) > 0 {
			log.Info("joined", "channel", line.Args[0])
		}
		handleNickserv(cfg, ident, conn)
	})
	conn.HandleFunc(irc.DISCONNECTED, func(conn *irc.Conn, line *irc.Line) {
		log.Warn("disconnected", "host", cfg.Host)
	})

	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("irc connect: %w", err)
	}
	go func() {
		<-ctx.Done()
		conn.Quit("shutting down")
	}()

	return &Session{IRC: NewIRC(conn, cfg.Channel, baseLog), conn: conn}, nil
}

// Commands returns a controller bound to the session's channel and routes
// channel messages to it.
func (s *Session) Commands(ctx context.Context) *CommandController {
	ctrl := NewCommandController(s.conn, s.channel, s.log)
	s.conn.HandleFunc(irc.PRIVMSG, func(conn *irc.Conn, line *irc.Line) {
		if err := ctrl.HandleCommand(ctx, line); err != nil {
			s.log.Warn("ops command failed", "error", err)
		}
	})
	return ctrl
}

func (s *Session) Close() {
	if s.conn != nil && s.conn.Connected() {
		s.conn.Quit("bye")
	}
}

func handleNickserv(cfg config.IRCConfig, ident *identified, c *irc.Conn) {
	ident.Lock()
	defer ident.Unlock()
	if !ident.done && cfg.NickservPassword != "" {
		c.Raw(fmt.Sprintf(cfg.NickservCommand, cfg.NickservPassword))
		ident.done = true
	}
}
