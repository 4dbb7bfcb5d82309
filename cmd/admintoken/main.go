/*
Command admintoken mints an operator token for the admin HTTP API.

It signs with ADMIN_JWT_SECRET, the same variable the server reads, and prints the token to stdout:

	curl -H "Authorization: Bearer $(go run ./cmd/admintoken -sub alice)" ...
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"roomchat/internal/configs"
	"roomchat/internal/pkg/auth/jwt"
)

func main() {
	ttl := flag.Duration("ttl", jwt.AdminTokenExpiration, "token lifetime")
	subject := flag.String("sub", "operator", "operator name recorded in audit logs")
	flag.Parse()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	payload := &jwt.Payload{Role: jwt.RoleAdmin}
	payload.Subject = *subject

	token, err := jwt.GenerateToken(payload, cfg.AdminJWTSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
