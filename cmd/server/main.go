package main

import (
	"fmt"
	"os"

	"codeloom/internal/config"
	"codeloom/internal/db"
	"codeloom/internal/log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "codeloom",
	Short:   "CodeLoom - developer community API and chat server",
	Version: Version,
	// Without a subcommand the server starts.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and chat server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, err := setup()
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users and articles into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := setup()
		if err != nil {
			return err
		}
		return db.Seed(conn)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// setup loads configuration, configures logging and opens the migrated database.
func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log.Init(log.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})

	conn, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}
