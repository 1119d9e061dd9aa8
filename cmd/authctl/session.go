package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/repo"
)

type sessionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %w", err)
		}
		store, closeStore, err := openSessions()
		if err != nil {
			return err
		}
		defer closeStore()

		s, err := store.GetByID(cmd.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %s not found", id)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

// openSessions picks the store the service is configured with.
func openSessions() (sessionReader, func(), error) {
	sc, err := config.LoadSessions()
	if err != nil {
		return nil, nil, err
	}
	if sc.Store == "redis" {
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr, Password: sc.RedisPassword, DB: sc.RedisDB})
		return sessionrepo.NewRedisSessionRepo(client), func() { _ = client.Close() }, nil
	}
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	return sessionrepo.NewSessionRepo(db), func() { _ = db.Close() }, nil
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
