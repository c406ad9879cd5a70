package main

import (
	"os"

	"github.com/openagv/fleetkernel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
