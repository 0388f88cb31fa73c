package main

import (
	"os"

	"github.com/soundprediction/cliodyn/cmd/cliodyn"
)

func main() {
	if err := cliodyn.Execute(); err != nil {
		os.Exit(1)
	}
}
