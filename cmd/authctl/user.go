package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
)

// userView leaves out the password hash and verification token.
type userView struct {
	ID                      uuid.UUID  `json:"id"`
	Email                   string     `json:"email"`
	EmailVerified           bool       `json:"email_verified"`
	EmailVerificationSentAt *time.Time `json:"email_verification_sent_at,omitempty"`
	PasswordUpdatedAt       *time.Time `json:"password_updated_at,omitempty"`
	AuthProvider            string     `json:"auth_provider"`
	UserState               string     `json:"user_state"`
	AccessRange             string     `json:"access_range"`
	CreatedAt               time.Time  `json:"created_at"`
	LastLoginAt             *time.Time `json:"last_login_at,omitempty"`
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect stored users",
}

var userShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Print a user as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		email := user.NormalizeEmail(args[0])
		u, err := userrepo.NewUserRepo(db).FindByEmail(cmd.Context(), email)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s not found", email)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(userView{
			ID:                      u.ID,
			Email:                   u.Email,
			EmailVerified:           u.EmailVerified,
			EmailVerificationSentAt: u.EmailVerificationSentAt,
			PasswordUpdatedAt:       u.PasswordUpdatedAt,
			AuthProvider:            u.AuthProvider.String(),
			UserState:               u.UserState.String(),
			AccessRange:             u.AccessRange.String(),
			CreatedAt:               u.CreatedAt,
			LastLoginAt:             u.LastLoginAt,
		})
	},
}

func init() {
	userCmd.AddCommand(userShowCmd)
	rootCmd.AddCommand(userCmd)
}
