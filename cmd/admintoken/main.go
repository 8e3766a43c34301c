// Command admintoken mints an admin JWT for catalog writes through the
// gateway, signed with the configured JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tair/cosmetics-recommender/pkg/auth"
	"github.com/tair/cosmetics-recommender/pkg/config"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("subject", "catalog-admin", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load("admintoken", "0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Service.Name, cfg.Service.Environment)

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, auth.DefaultIssuer)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Cannot sign tokens")
	}

	token, err := signer.GenerateToken(*subject, auth.RoleAdmin, lifetime)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to generate token")
	}

	logger.Logger.Info().
		Str("subject", *subject).
		Time("expires_at", time.Now().Add(lifetime)).
		Msg("Admin token issued")
	fmt.Println(token)
}
