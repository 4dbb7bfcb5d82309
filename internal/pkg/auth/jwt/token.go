package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AdminTokenExpiration is the default lifetime of a minted operator token.
	AdminTokenExpiration = 12 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "roomchat"
)

// GenerateToken signs payload with HS256, stamping issuer, issue time and expiry.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("empty signing secret")
	}

	now := time.Now()

	payload.ExpiresAt = now.Add(duration).Unix()
	payload.IssuedAt = now.Unix()
	payload.Issuer = TokenIssuer

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates a token string signed with secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Issuer != TokenIssuer {
		return nil, errors.New("unexpected token issuer")
	}

	return claims, nil
}
