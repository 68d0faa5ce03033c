package main

import (
	"os"

	"tradejournal/cmd/journalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
