package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, time.Minute)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, payload.Role)
	assert.Equal(t, TokenIssuer, payload.Issuer)
	assert.Greater(t, payload.ExpiresAt, payload.IssuedAt)
}

func TestParseTokenRejects(t *testing.T) {
	good, err := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, time.Minute)
	require.NoError(t, err)

	expired, err := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(good, "other-secret")
	assert.Error(t, err, "wrong secret")

	_, err = ParseToken(expired, testSecret)
	assert.Error(t, err, "expired")

	_, err = ParseToken("not.a.token", testSecret)
	assert.Error(t, err, "garbage")
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(&Payload{Role: RoleAdmin}, "", time.Minute)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	admin, err := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, time.Minute)
	require.NoError(t, err)
	viewer, err := GenerateToken(&Payload{Role: "viewer"}, testSecret, time.Minute)
	require.NoError(t, err)

	var seen *Payload
	h := RequireAdmin(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + admin, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "non-admin role", header: "Bearer " + viewer, want: http.StatusUnauthorized},
		{name: "admin", header: "Bearer " + admin, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodPost, "/api/admin/announce", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, RoleAdmin, seen.Role)
			}
		})
	}
}
