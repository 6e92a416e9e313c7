// Package main provides the runonchange CLI.
//
// runonchange watches one or more directories and re-runs a shell command
// whenever something inside them changes, stopping the previous run (and
// everything it started) first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI and reports any error on stderr. Cancelling ctx stops
// the running command and returns nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	if errors.Is(err, errUsage) {
		fmt.Fprint(stderr, root.UsageString())
		return err
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return err
}
