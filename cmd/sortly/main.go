// Package main implements the sortly command-line tool.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sortly/internal/cli"
)

func main() {
	// Variables already set win over .env. Logging is not configured yet, so
	// these only show up when the default logger is lowered to debug.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	} else {
		slog.Debug("loaded .env file")
	}

	cli.DoCLI()
}
