package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/jpo-robotics/brain-agent/core"
	"github.com/jpo-robotics/brain-agent/internal/mgmt"
)

// Args is the union of the arguments accepted by the commands.
// Each command reads only the fields it needs.
type Args struct {
	Path          string   `json:"path"`
	Paths         []string `json:"paths"`
	IncludeHidden bool     `json:"include_hidden"`
	Keep          []string `json:"keep"`
	KeepPatterns  []string `json:"keep_patterns"`
	Mode          string   `json:"mode"`
	HandleID      int      `json:"handle_id"`
	Data          []byte   `json:"bufb64"`
	EOF           bool     `json:"eof"`
	ID            int64    `json:"id"`
}

type HandlerFunc func(ctx context.Context, srv *core.Server, args *Args) (interface{}, error)

type Command struct {
	Name    string
	Usage   string
	Handler HandlerFunc
}

var registry = make(map[string]*Command)

func register(cmd *Command) {
	if _, ok := registry[cmd.Name]; ok {
		panic(fmt.Sprintf("command already registered: %s", cmd.Name))
	}

	registry[cmd.Name] = cmd
}

func Lookup(name string) (*Command, bool) {
	cmd, ok := registry[name]

	return cmd, ok
}

// Names returns the sorted list of registered commands.
func Names() []string {
	names := make([]string, 0, len(registry))

	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func init() {
	register(&Command{
		Name:  "ping",
		Usage: "return the agent version",
		Handler: func(_ context.Context, _ *core.Server, _ *Args) (interface{}, error) {
			return core.AgentVersion, nil
		},
	})

	register(&Command{
		Name:  "agent-info",
		Usage: "return the session id, version and features of the agent",
		Handler: func(ctx context.Context, srv *core.Server, _ *Args) (interface{}, error) {
			return srv.GetAgentInfo(ctx), nil
		},
	})

	register(&Command{
		Name:  "get-commands",
		Usage: "list the supported commands",
		Handler: func(_ context.Context, _ *core.Server, _ *Args) (interface{}, error) {
			return Names(), nil
		},
	})

	register(&Command{
		Name:  "agent-shutdown",
		Usage: "stop the agent gracefully",
		Handler: func(ctx context.Context, srv *core.Server, _ *Args) (interface{}, error) {
			if err := srv.GracefulShutdown(ctx); err != nil {
				return nil, err
			}

			return true, nil
		},
	})

	register(&Command{
		Name:  "last",
		Usage: "return the last value published on the inspection channel",
		Handler: func(_ context.Context, _ *core.Server, _ *Args) (interface{}, error) {
			return mgmt.LastReplValue(), nil
		},
	})

	register(&Command{
		Name:  "inspect",
		Usage: "return the value published under an object link id",
		Handler: func(_ context.Context, _ *core.Server, args *Args) (interface{}, error) {
			v, ok := mgmt.Inspect(args.ID)
			if !ok {
				return nil, fmt.Errorf("no object with id %d", args.ID)
			}

			return v, nil
		},
	})
}
