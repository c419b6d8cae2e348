// Package main is the entry point for the awsgate CLI.
package main

import (
	"errors"
	"os"

	"github.com/xdg/awsgate/internal/cmd"
	"github.com/xdg/awsgate/internal/term"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				term.Error("%v", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		term.Error("%v", err)
		os.Exit(1)
	}
}
