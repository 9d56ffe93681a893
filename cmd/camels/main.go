package main

import (
	"os"

	"camelsrating/cmd/camels/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
