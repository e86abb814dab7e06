package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jpo-robotics/brain-agent/core"
	"github.com/jpo-robotics/brain-agent/internal/config"

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

	app.Usage = "A file management agent for robot brain devices"
	app.HideHelpCommand = true
	app.EnableShellCompletion = true

	// If no arguments provided
	app.Action = runAgent

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable debug/verbose mode",
		},
	}

	app.Commands = []*cli.Command{
		// AGENT
		&cli.Command{
			Name:  "serve",
			Usage: "run the agent",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "directory exposed as the device filesystem"},
				&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "path to the serial port"},
				&cli.BoolFlag{Name: "legacy", Usage: "use the serial port instead of VM sockets"},
				&cli.StringFlag{Name: "tcp", Usage: "also listen on this TCP address"},
				&cli.UintFlag{Name: "vsock-port", Usage: "VM sockets port to listen on"},
			},
			Action: runAgent,
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
		log.Fatalln(err)
	}
}

func runAgent(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	applyFlags(cfg, c)

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	agent, err := NewAgent(cfg)
	if err != nil {
		return fmt.Errorf("pre-start error: %w", err)
	}

	// This global cancel context is used by the graceful shutdown function
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Register signal handler
	go func() {
		sigc := make(chan os.Signal, 1)

		signal.Notify(sigc, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigc)

		select {
		case sig := <-sigc:
			log.WithField("signal", sig).Info("Graceful shutdown initiated ...")
		case <-ctx.Done():
		}

		cancel()
	}()

	return agent.ListenAndServe(ctx)
}

// applyFlags overrides the environment configuration
// with the flags given on the command line.
func applyFlags(cfg *config.Config, c *cli.Command) {
	if c.Bool("verbose") {
		cfg.Verbose = true
	}

	if c.IsSet("root") {
		cfg.DeviceRoot = c.String("root")
	}

	if c.IsSet("path") {
		cfg.SerialPort = c.String("path")
	}

	if c.Bool("legacy") {
		cfg.Legacy = true
	}

	if c.IsSet("tcp") {
		cfg.TCPAddr = c.String("tcp")
	}

	if c.IsSet("vsock-port") {
		cfg.VsockPort = uint32(c.Uint("vsock-port"))
	}
}
