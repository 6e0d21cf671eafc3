package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jan-server/services/chatbot-api/internal/infrastructure/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development access token",
	Long: `Sign an HS256 token with SUPABASE_JWT_SECRET that the API accepts.

Only meant for local development; production tokens come from Supabase Auth.`,
	RunE: runToken,
}

var (
	tokenSubject string
	tokenEmail   string
	tokenTTL     time.Duration
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "User ID (random UUID when empty)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	if settings.JWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is not set")
	}

	subject := uuid.New()
	if tokenSubject != "" {
		parsed, err := uuid.Parse(tokenSubject)
		if err != nil {
			return fmt.Errorf("invalid --sub: %w", err)
		}
		subject = parsed
	}

	token, err := auth.IssueToken(settings.JWTSecret, settings.JWTAudience, subject, tokenEmail, tokenTTL, time.Now())
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	if isVerbose(cmd) {
		fmt.Printf("# sub=%s expires_in=%s\n", subject, tokenTTL)
	}
	fmt.Println(token)
	return nil
}
