// Command sheetpulse inspects workbooks and renders charts and slide decks
// from the command line.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"sheetpulse/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
