package main

import (
	"os"

	"github.com/steelroute/rakeflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
