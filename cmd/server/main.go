/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the work package engine. Configuration comes
  from an optional .env file and WP_* environment variables; the
  subcommands wire the store, engine and HTTP layer from it.

COMMANDS:
  serve                   Start the HTTP API (and the forecast watch)
  evolution <id>          Print a contract's evolution as JSON
  tickets <id>            Print a contract's ticket report as JSON
  load-scenario <id>      Replace the database content with a demo scenario

GLOBAL FLAGS:
  --env-file   Environment file read before the process environment
               (default: .env)
  --db         SQLite database path, overrides WP_DATABASE_PATH
               Use ":memory:" for an in-memory database
  -v           Debug logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits for
  active requests up to server.shutdown_timeout, stops the forecast
  watch and closes the database.

EXAMPLES:
  ./server serve --db=./data/workpackages.db
  WP_SERVER_PORT=3000 ./server serve
  ./server load-scenario bolsa-carryover
  ./server evolution wp-acme --period acme-2024

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
