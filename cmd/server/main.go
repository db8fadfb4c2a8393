/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the fulfillment engine. Subcommands:

    serve   Start the HTTP API (default when no subcommand is given)
    plan    Print the day-by-day plan for one line item

CONFIGURATION:
  Read from the environment (and .env) by package config. Flags on the
  subcommands override the environment:

    HTTP_ADDR        listen address            (--addr)
    STORE            sqlite | memory | mongo   (--store)
    SQLITE_PATH      sqlite database file      (--db)
    MONGO_URI        MongoDB connection URI
    MONGO_DB         MongoDB database name
    LOG_LEVEL        debug | info | warn | error
    LOG_FORMAT       json | console
    CORS_ORIGINS     comma separated origins
    HOLIDAY_FILE     YAML holidays saved at startup

EXAMPLES:
  # Run with file database
  ./server serve --db=./data/fulfillment.db

  # Run with in-memory store on a different port
  ./server serve --store=memory --addr=:3000

  # Preview 30 units over five weeks with a holiday
  ./server plan --start 2025-03-03 --end 2025-04-05 --quantity 30 --holiday 2025-03-12

SEE ALSO:
  - serve.go: HTTP server startup and graceful shutdown
  - plan.go: Plan preview
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "Service-package fulfillment engine",
		Long: `Schedules package line items into daily production tasks and tracks
payment milestones against delivered units.

Running without a subcommand starts the HTTP API.`,
		SilenceUsage: true,
	}

	serve := newServeCmd()
	root.AddCommand(serve)
	root.AddCommand(newPlanCmd())
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
