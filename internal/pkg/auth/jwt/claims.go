package jwt

import "github.com/golang-jwt/jwt"

// RoleAdmin is the only role accepted by the admin API.
const RoleAdmin = "admin"

// Payload defines the JWT claims carried by operator tokens.
type Payload struct {
	// StandardClaims carries exp, iat, iss and sub (the operator's name, for audit logs).
	jwt.StandardClaims

	// Role authorizes the bearer; admin endpoints require RoleAdmin.
	Role string `json:"role"`
}
