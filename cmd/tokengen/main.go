// Command tokengen mints bearer tokens for the guarded endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/auth"
)

func main() {
	var (
		subject = flag.String("subject", "admin", "token subject")
		role    = flag.String("role", auth.RoleRegistrar, "token role: registrar or issuer")
		ttl     = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		fmt.Fprintln(os.Stderr, "tokengen: JWT_SIGNING_KEY is not set")
		os.Exit(1)
	}

	svc := auth.NewTokenService(signingKey, "zkp-gpa-verification", *ttl)
	token, err := svc.GenerateToken(*subject, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
