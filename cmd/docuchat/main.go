// Command docuchat is the entry point for the document Q&A service.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// upload, chat, and event-stream API.
package main

import (
	"fmt"
	"os"

	"github.com/docuchat/docuchat-go/cmd/docuchat/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
