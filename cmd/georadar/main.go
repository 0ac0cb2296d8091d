package main

import (
	"os"

	"github.com/halcyonlabs/georadar/cmd/georadar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
