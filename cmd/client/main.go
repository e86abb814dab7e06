package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/jpo-robotics/brain-agent/core"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
}

func main() {
	app := new(cli.Command)

	app.Name = "brainctl"
	app.Usage = "Manage files on a robot brain device through its agent"
	app.HideHelpCommand = true
	app.EnableShellCompletion = true

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "endpoint",
			Aliases: []string{"e"},
			Sources: cli.EnvVars("BRAIN_ENDPOINT"),
			Usage:   "agent endpoint: cid:CID[:PORT], tcp:HOST:PORT or a serial device path",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: time.Minute,
			Usage: "timeout of a single command",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable debug/verbose mode",
		},
	}

	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if c.Bool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		return ctx, nil
	}

	app.Commands = []*cli.Command{
		// AGENT
		&cli.Command{
			Name:   "ping",
			Usage:  "print the version of the agent",
			Action: withClient(ping),
		},
		&cli.Command{
			Name:   "agent-info",
			Usage:  "print information about the agent running on the device",
			Action: withClient(showAgentInfo),
		},
		&cli.Command{
			Name:   "agent-shutdown",
			Usage:  "stop the agent",
			Action: withClient(shutdownAgent),
		},
		// FILE SYSTEM
		&cli.Command{
			Name:      "ls",
			Usage:     "print the stat records of the directory content",
			ArgsUsage: "[DIRECTORY]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "do not ignore entries starting with ."},
			},
			Action: withClient(listDir),
		},
		&cli.Command{
			Name:      "find",
			Usage:     "list the directory tree",
			ArgsUsage: "[DIRECTORY]",
			Action:    withClient(listAll),
		},
		&cli.Command{
			Name:      "sha1sum",
			Usage:     "print SHA-1 checksums of files",
			ArgsUsage: "FILE...",
			Action:    withClient(showSHA1s),
		},
		&cli.Command{
			Name:      "du",
			Usage:     "print sizes of files",
			ArgsUsage: "FILE...",
			Action:    withClient(showSizes),
		},
		&cli.Command{
			Name:      "mkdir",
			Usage:     "create a directory with all missing parents",
			ArgsUsage: "DIRECTORY",
			Action:    withClient(makeDirs),
		},
		&cli.Command{
			Name:      "rmtree",
			Usage:     "delete a directory tree",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "keep", Aliases: []string{"k"}, Usage: "keep this file (relative path)"},
				&cli.StringSliceFlag{Name: "keep-pattern", Aliases: []string{"p"}, Usage: "keep the files matching this glob"},
			},
			Action: withClient(deleteTree),
		},
		&cli.Command{
			Name:      "cat",
			Usage:     "print file content",
			ArgsUsage: "FILE",
			Action:    withClient(showFileContent),
		},
		&cli.Command{
			Name:      "rcp",
			Usage:     "copy a file from (device:SRC DST) or to (SRC|- device:DST) the device",
			ArgsUsage: "SRC DST",
			Action:    withClient(copyFile),
		},
		// VERSION
		&cli.Command{
			Name:  "version",
			Usage: "print the version information",
			Action: func(ctx context.Context, c *cli.Command) error {
				fmt.Printf("v%s, (built %s)\n", core.AgentVersion, runtime.Version())
				return nil
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		os.Exit(1)
	}
}
