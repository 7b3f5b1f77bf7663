package main

import (
	"errors"
	"fmt"
	"time"

	"rawvariant/internal/config"
	"rawvariant/internal/middleware"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	roleFlag = "role"
	userFlag = "user"
	ttlFlag  = "ttl"
)

var tokenFlags = map[string]cobraflags.Flag{
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: middleware.RoleViewer,
		Usage: "Role claim: viewer, editor or admin",
	},
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Value: "catalogctl",
		Usage: "User ID claim",
	},
	ttlFlag: &cobraflags.StringFlag{
		Name:  ttlFlag,
		Value: "",
		Usage: "Token lifetime, e.g. 30m (default: JWT_EXPIRATION_HOURS)",
	},
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token signed with JWT_SECRET",
		RunE:  runToken,
	}
	cobraflags.RegisterMap(cmd, tokenFlags)
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	role := tokenFlags[roleFlag].GetString()
	switch role {
	case middleware.RoleViewer, middleware.RoleEditor, middleware.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	if s := tokenFlags[ttlFlag].GetString(); s != "" {
		if ttl, err = time.ParseDuration(s); err != nil {
			return fmt.Errorf("--%s: %w", ttlFlag, err)
		}
	}

	tok, err := middleware.IssueToken(cfg.JWTSecret, tokenFlags[userFlag].GetString(), role, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
