package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/identity"
)

var (
	tokenTTL      time.Duration
	tokenUsername string
)

// tokenCmd mints a bearer token for local testing; production tokens come
// from the identity provider.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Print a signed bearer token for a user id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := domain.ParseUserID(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, err := identity.NewJWTVerifier(cfg.Auth.Config)
		if err != nil {
			return err
		}
		tok, err := v.Issue(uid, tokenUsername, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "username claim")
}
