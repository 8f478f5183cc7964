package main

import (
	"os"

	"github.com/phaezer/mcp-local-project-memory/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
