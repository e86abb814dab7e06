package main

import (
	"context"
	"fmt"

	"github.com/jpo-robotics/brain-agent/client"

	"github.com/urfave/cli/v3"
)

func ping(ctx context.Context, agent *client.Client, _ *cli.Command) error {
	version, err := agent.Ping(ctx)
	if err != nil {
		return err
	}

	fmt.Println(version)

	return nil
}

func showAgentInfo(ctx context.Context, agent *client.Client, _ *cli.Command) error {
	info, err := agent.AgentInfo(ctx)
	if err != nil {
		return err
	}

	return client.PrintJSON(info)
}

func shutdownAgent(ctx context.Context, agent *client.Client, _ *cli.Command) error {
	return agent.Shutdown(ctx)
}
