package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
}

const socketHelp = `Listening socket can be either in "tcp:HOST:PORT" format for TCP sockets,
or "PORT" for vsock sockets.

Socket to connect can be either in "CID:PORT" format for vsock sockets,
"tcp:HOST:PORT" for TCP sockets or "/path/to/device" for a serial port.
A serial port serves one connection at a time.`

func main() {
	app := new(cli.Command)

	app.Name = "agent-proxy"
	app.Usage = "Expose a brain agent on another socket"
	app.ArgsUsage = "SOCKET-TO-LISTEN SOCKET-TO-CONNECT"
	app.Description = socketHelp
	app.HideHelpCommand = true

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable debug/verbose mode",
		},
	}

	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Bool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		return run(ctx, c.Args().Slice())
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalln(err)
	}
}
