package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chatbot-api/internal/config"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/responses"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func newTestValidator() *Validator {
	return NewValidator(&config.Config{SupabaseJWTSecret: testSecret, JWTAudience: "authenticated"}, zerolog.Nop())
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate_Valid(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, "authenticated", userID, "ana@example.com", time.Hour, time.Now())
	require.NoError(t, err)

	user, err := newTestValidator().Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestAuthenticate_Failures(t *testing.T) {
	now := time.Now()
	future := jwt.NewNumericDate(now.Add(time.Hour))
	aud := jwt.ClaimStrings{"authenticated"}

	expired, err := IssueToken(testSecret, "authenticated", uuid.New(), "", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	wrongKey, err := IssueToken("another-secret-another-secret-another", "authenticated", uuid.New(), "", time.Hour, now)
	require.NoError(t, err)
	wrongAudience, err := IssueToken(testSecret, "anon", uuid.New(), "", time.Hour, now)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		status  string
		message string
	}{
		{"missing", "", StatusMissing, "Not authenticated"},
		{"expired", expired, StatusExpired, "Authentication token has expired"},
		{"bad signature", wrongKey, StatusInvalid, "Invalid authentication token: "},
		{"garbage", "not-a-jwt", StatusInvalid, "Invalid authentication token: "},
		{"wrong audience", wrongAudience, StatusInvalid, "Invalid authentication token: "},
		{"hs512 rejected", sign(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{Subject: uuid.NewString(), Audience: aud, ExpiresAt: future}), StatusInvalid, "Invalid authentication token: "},
		{"missing subject", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Audience: aud, ExpiresAt: future}), StatusMissingSubject, "Invalid authentication token: missing user ID"},
		{"malformed subject", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "user-42", Audience: aud, ExpiresAt: future}), StatusInvalidSubject, "Invalid user ID format: "},
	}

	validator := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.Authenticate(tt.token)
			require.Error(t, err)

			authErr, ok := err.(*Error)
			require.True(t, ok)
			assert.Equal(t, tt.status, authErr.Status)
			assert.True(t, strings.HasPrefix(authErr.Message, tt.message), authErr.Message)
		})
	}
}

func TestAuthenticate_AudienceDisabled(t *testing.T) {
	validator := NewValidator(&config.Config{SupabaseJWTSecret: testSecret}, zerolog.Nop())
	token, err := IssueToken(testSecret, "", uuid.New(), "", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = validator.Authenticate(token)
	assert.NoError(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/me", newTestValidator().Middleware(), func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID.String()})
	})

	t.Run("rejects missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		var body responses.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body.Error)
		assert.Equal(t, "Not authenticated", body.Message)
		assert.Equal(t, errorCodes[StatusMissing], body.Code)
	})

	t.Run("rejects non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body responses.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, errorCodes[StatusMissing], body.Code)
	})

	t.Run("accepts valid token", func(t *testing.T) {
		userID := uuid.New()
		token, err := IssueToken(testSecret, "authenticated", userID, "", time.Hour, time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})
}
