package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
)

var migrateSkipSessions bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users and user_sessions tables",
	Long:  "Create the users and user_sessions tables if they do not exist. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		owners := []database.TableOwner{userrepo.NewUserRepo(db)}
		if !migrateSkipSessions {
			owners = append(owners, sessionrepo.NewSessionRepo(db))
		}
		if err := database.EnsureSchema(cmd.Context(), owners...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d tables)\n", len(owners))
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSkipSessions, "skip-sessions", false, "do not create user_sessions (sessions kept in redis)")
	rootCmd.AddCommand(migrateCmd)
}
