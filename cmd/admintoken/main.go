package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/khdigital94/hdforms/internal/auth"
	"github.com/khdigital94/hdforms/internal/config"
)

func main() {
	subject := flag.String("subject", "admin", "administrator the token is issued to")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, *subject, auth.RoleAdmin, *ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
