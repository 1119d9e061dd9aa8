package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:          "authctl",
	Short:        "Operator tools for the auth service",
	SilenceUsage: true,
}

// openDB is replaced in tests.
var openDB = func() (*sqlx.DB, error) {
	return database.Connect(database.ConfigFromEnv())
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
