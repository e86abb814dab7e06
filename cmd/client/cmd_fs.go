package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jpo-robotics/brain-agent/client"

	"github.com/urfave/cli/v3"
)

var errNoArgs = errors.New("not enough arguments")

func listDir(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	entries, err := agent.ListDir(ctx, args.First(), c.Bool("all"))
	if err != nil {
		return err
	}

	if entries == nil {
		return fmt.Errorf("cannot list directory: %s", args.First())
	}

	return client.PrintJSON(entries)
}

func listAll(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	paths, err := agent.ListAll(ctx, args.First())
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}

	return nil
}

func showSHA1s(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	if args.Len() == 0 {
		return errNoArgs
	}

	digests, err := agent.FileSHA1s(ctx, args.Slice())
	if err != nil {
		return err
	}

	for i, p := range args.Slice() {
		if digests[i] == nil {
			fmt.Fprintf(os.Stderr, "sha1sum: %s: cannot read file\n", p)

			continue
		}

		fmt.Printf("%s  %s\n", *digests[i], p)
	}

	return nil
}

func showSizes(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	if args.Len() == 0 {
		return errNoArgs
	}

	sizes, err := agent.FileSizes(ctx, args.Slice())
	if err != nil {
		return err
	}

	for i, p := range args.Slice() {
		if sizes[i] == nil {
			fmt.Fprintf(os.Stderr, "du: %s: no such file\n", p)

			continue
		}

		fmt.Printf("%d\t%s\n", *sizes[i], p)
	}

	return nil
}

func makeDirs(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	if args.Len() != 1 {
		return errNoArgs
	}

	return agent.Mkdirs(ctx, args.First())
}

func deleteTree(ctx context.Context, agent *client.Client, c *cli.Command) error {
	if c.NArg() != 1 {
		return errNoArgs
	}

	return agent.DelTree(ctx, c.Args().First(), c.StringSlice("keep"), c.StringSlice("keep-pattern"))
}

func showFileContent(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	if args.Len() != 1 {
		return errNoArgs
	}

	return agent.Download(ctx, args.First(), os.Stdout)
}

func copyFile(ctx context.Context, agent *client.Client, c *cli.Command) error {
	args := c.Args()

	if args.Len() != 2 {
		return errNoArgs
	}

	return agent.CopyFile(ctx, args.Get(0), args.Get(1))
}
