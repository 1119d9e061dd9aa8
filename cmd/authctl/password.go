package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/password"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print an Argon2id hash for a password",
	Long: "Print an Argon2id hash using the PASSWORD_* cost settings. Without an argument " +
		"the password is read from the first line of stdin.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, err := readPassword(cmd, args)
		if err != nil {
			return err
		}
		params, err := config.LoadPassword()
		if err != nil {
			return err
		}
		hash, err := password.NewHasher(params).Hash(plain)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var verifyPasswordCmd = &cobra.Command{
	Use:   "verify-password <hash> [password]",
	Short: "Check a password against a stored hash",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, err := readPassword(cmd, args[1:])
		if err != nil {
			return err
		}
		params, err := config.LoadPassword()
		if err != nil {
			return err
		}
		h := password.NewHasher(params)
		ok, err := h.Verify(plain, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("password does not match")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		if h.NeedsRehash(args[0]) {
			fmt.Fprintln(cmd.ErrOrStderr(), "hash uses outdated parameters")
		}
		return nil
	},
}

func readPassword(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", errors.New("no password given")
		}
		return "", errors.New("empty password")
	}
	return line, nil
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(verifyPasswordCmd)
}
