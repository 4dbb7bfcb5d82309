package jwt

import (
	"context"
	"net/http"
	"strings"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

type contextKey string

// ContextAuthPayloadKey is the request context key holding the verified *Payload.
const ContextAuthPayloadKey contextKey = "auth_payload"

// RequireAdmin rejects requests without a valid "Bearer <token>" carrying RoleAdmin.
// Unlike a best-effort identity extractor it always stops the request on failure.
func RequireAdmin(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, tokenString, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Rejected admin request with invalid token", "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			if payload.Role != RoleAdmin {
				logx.Warn("Rejected admin request with non-admin role", "role", payload.Role, "subject", payload.Subject)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the verified Payload, or nil outside RequireAdmin.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}
