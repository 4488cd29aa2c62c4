// Command sheetfilter lists, prints and filters spreadsheets from the
// command line using the same reader and filter as the web viewer.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
