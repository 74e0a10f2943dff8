package announcer

import (
	"context"
	"errors"
	"testing"

	"github.com/MyelinBots/bloom-go/internal/announcer/mocks"
	"github.com/MyelinBots/bloom-go/internal/logger"
	irc "github.com/fluffle/goirc/client"
	"go.uber.org/mock/gomock"
)

func TestCommandController_Dispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIRCClient(ctrl)
	cc := NewCommandController(client, "#ops", logger.NewNop())

	var gotArgs []string
	cc.AddCommand("!lastrun", func(ctx context.Context, args []string) (string, error) {
		gotArgs = args
		return "line one\n\nline two", nil
	})

	gomock.InOrder(
		client.EXPECT().Privmsg("#ops", "line one"),
		client.EXPECT().Privmsg("#ops", "line two"),
	)
	line := &irc.Line{Nick: "oncall", Cmd: irc.PRIVMSG, Args: []string{"#OPS", "!LastRun verbose"}}
	if err := cc.HandleCommand(context.Background(), line); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "verbose" {
		t.Errorf("args = %v, want [verbose]", gotArgs)
	}
}

func TestCommandController_Ignores(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIRCClient(ctrl)
	cc := NewCommandController(client, "#ops", logger.NewNop())
	cc.AddCommand("!lastrun", func(context.Context, []string) (string, error) {
		t.Fatal("handler must not run")
		return "", nil
	})

	tests := []struct {
		name string
		line *irc.Line
	}{
		{"nil line", nil},
		{"no text", &irc.Line{Args: []string{"#ops"}}},
		{"blank text", &irc.Line{Args: []string{"#ops", "   "}}},
		{"other channel", &irc.Line{Args: []string{"#general", "!lastrun"}}},
		{"private message", &irc.Line{Args: []string{"bloombot", "!lastrun"}}},
		{"unknown command", &irc.Line{Args: []string{"#ops", "!restart now"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cc.HandleCommand(context.Background(), tt.line); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCommandController_HandlerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIRCClient(ctrl)
	cc := NewCommandController(client, "#ops", logger.NewNop())
	boom := errors.New("database unavailable")
	cc.AddCommand("!lastrun", func(context.Context, []string) (string, error) { return "", boom })

	client.EXPECT().Privmsg("#ops", "oncall: database unavailable")
	err := cc.HandleCommand(context.Background(), &irc.Line{Nick: "oncall", Args: []string{"#ops", "!lastrun"}})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
