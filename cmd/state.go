package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/user"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted session",
}

type stateReport struct {
	Auth   user.AuthState `json:"auth"`
	Claims *auth.Claims    `json:"claims,omitempty"`
	// TokenError is set when the stored token no longer verifies.
	TokenError string      `json:"tokenError,omitempty"`
	Issues     issue.Stats `json:"issues"`
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the session and issue counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		lg := initLogger(cfg)

		s, kv, err := openStore(cmd.Context(), cfg, lg)
		if err != nil {
			return err
		}
		defer func() { _ = storage.Close(kv) }()

		report := stateReport{Auth: s.Auth(), Issues: issue.Summarize(s.Issues())}
		if report.Auth.Token != nil {
			issuer := auth.NewJWTTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
			claims, err := issuer.Parse(*report.Auth.Token)
			if err != nil {
				report.TokenError = err.Error()
			} else {
				report.Claims = claims
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var stateLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		lg := initLogger(cfg)

		s, kv, err := openStore(cmd.Context(), cfg, lg)
		if err != nil {
			return err
		}
		defer func() { _ = storage.Close(kv) }()

		return s.Logout(cmd.Context())
	},
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateLogoutCmd)
}
