package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todo-api",
	Short: "To-do list HTTP API",
	Long: `Serves the to-do list API: registration with email OTP verification,
cookie sessions, password reset, avatar profiles and per-user tasks.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending postgres schema migrations",
	Long:  `Apply the embedded goose migrations to the database configured by the DB_* variables. Only meaningful with DB_DRIVER=postgres.`,
	RunE:  runMigrate,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
