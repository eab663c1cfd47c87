// Package command provides CLI command definitions for cachemesh-cli.
//
// It uses urfave/cli/v2 for command parsing. Every command is a single
// request against a running cachemesh-server.
package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cachemesh-go/internal/infra/buildinfo"
	"github.com/yndnr/cachemesh-go/pkg/client"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "cachemesh-cli",
		Usage:   "cachemesh command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			PutCommand(),
			DelCommand(),
			BatchCommand(),
			StatusCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "cachemesh server address (e.g., localhost:5070)",
			EnvVars: []string{"CACHEMESH_SERVER"},
			Value:   "localhost:5070",
		},
		&cli.StringFlag{
			Name:    "store",
			Usage:   "store instance id (defaults to the server's default instance)",
			EnvVars: []string{"CACHEMESH_STORE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: 10 * time.Second,
		},
	}
}

// newClient builds a client from the global flags.
func newClient(c *cli.Context) *client.Client {
	opts := []client.Option{}
	if store := c.String("store"); store != "" {
		opts = append(opts, client.WithStore(store))
	}
	return client.New(c.String("server"), opts...)
}

// requestContext derives the per-command context from the timeout flag.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, c.Duration("timeout"))
}
