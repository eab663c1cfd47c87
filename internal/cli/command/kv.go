// Package command provides CLI command definitions for cachemesh-cli.
package command

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cachemesh-go/pkg/client"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value stored under a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: get <key>", 2)
			}

			ctx, cancel := requestContext(c)
			defer cancel()

			value, err := newClient(c).Get(ctx, c.Args().First())
			if err != nil {
				return exitFailure(err)
			}
			if value == nil {
				fmt.Println("(not found)")
				return nil
			}
			return printJSON(value)
		},
	}
}

// PutCommand returns the put command.
func PutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Store a JSON value under a key",
		ArgsUsage: "<key> <json-value>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: put <key> <json-value>", 2)
			}

			var value json.RawMessage
			if err := json.Unmarshal([]byte(c.Args().Get(1)), &value); err != nil {
				return cli.Exit(fmt.Sprintf("value is not valid JSON: %v", err), 2)
			}

			ctx, cancel := requestContext(c)
			defer cancel()

			if err := newClient(c).Put(ctx, c.Args().First(), value); err != nil {
				return exitFailure(err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete the entry stored under a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: del <key>", 2)
			}

			ctx, cancel := requestContext(c)
			defer cancel()

			if err := newClient(c).Delete(ctx, c.Args().First()); err != nil {
				return exitFailure(err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

// BatchCommand returns the batch command. Entries are read as a JSON
// array from stdin or from the single argument.
func BatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Apply an ordered array of put/del/get entries in one call",
		ArgsUsage: "[json-entries]",
		Action: func(c *cli.Context) error {
			var raw []byte
			if c.NArg() == 1 {
				raw = []byte(c.Args().First())
			} else {
				data, err := readStdin()
				if err != nil {
					return cli.Exit(fmt.Sprintf("read stdin: %v", err), 2)
				}
				raw = data
			}

			var entries []client.BatchEntry
			if err := json.Unmarshal(raw, &entries); err != nil {
				return cli.Exit(fmt.Sprintf("entries are not valid JSON: %v", err), 2)
			}

			ctx, cancel := requestContext(c)
			defer cancel()

			if err := newClient(c).Batch(ctx, entries); err != nil {
				return exitFailure(err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

// StatusCommand returns the status command, reporting the server's
// registered instances.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show server status and registered store instances",
		Action: func(c *cli.Context) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			target := newClient(c).Endpoint() + "admin/v1/status"
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer resp.Body.Close()

			var status json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return printJSON(status)
		},
	}
}

// printJSON renders a raw JSON value indented on stdout.
func printJSON(raw json.RawMessage) error {
	var buf any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// Not valid JSON; print bytes as-is.
		fmt.Println(string(raw))
		return nil
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println(string(out))
	return nil
}

// exitFailure renders a client failure with its transport context.
func exitFailure(err error) error {
	return cli.Exit(err.Error(), 1)
}

// readStdin reads all of standard input.
func readStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
