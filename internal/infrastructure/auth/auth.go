package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jan-server/services/chatbot-api/internal/config"
	"jan-server/services/chatbot-api/internal/domain/principal"
	"jan-server/services/chatbot-api/internal/infrastructure/metrics"
	"jan-server/services/chatbot-api/internal/infrastructure/postgrest"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/responses"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

const userContextKey = "auth_user"

// Outcome labels recorded in jan_chatbot_api_auth_requests_total.
const (
	StatusSuccess        = "success"
	StatusMissing        = "missing"
	StatusExpired        = "expired"
	StatusInvalid        = "invalid"
	StatusMissingSubject = "missing_subject"
	StatusInvalidSubject = "invalid_subject"
)

// errorCodes gives each rejection outcome its own error code in the 401 body.
var errorCodes = map[string]string{
	StatusMissing:        "e5ea8e6d-5566-462d-b713-941cab7f74b5",
	StatusExpired:        "35f7a4e1-9275-4cde-99c0-48d9d02f3649",
	StatusInvalid:        "af044fd1-9059-4c5f-84b4-b49f06f11bed",
	StatusMissingSubject: "c24d7e5c-e183-4de6-a604-1d9eaca89d40",
	StatusInvalidSubject: "edac1625-0b76-43f9-98d8-5c18136fb9c5",
}

// Claims is the subset of a Supabase access token we read.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Error describes why a token was rejected. Message is safe to return to clients.
type Error struct {
	Status  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validator checks HS256 bearer tokens signed with the Supabase JWT secret.
type Validator struct {
	secret   []byte
	audience string
	log      zerolog.Logger
}

// NewValidator builds a validator from config.
func NewValidator(cfg *config.Config, log zerolog.Logger) *Validator {
	return &Validator{
		secret:   []byte(cfg.SupabaseJWTSecret),
		audience: cfg.JWTAudience,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate parses tokenString and returns the user it identifies.
func (v *Validator) Authenticate(tokenString string) (principal.User, error) {
	if tokenString == "" {
		return principal.User{}, &Error{Status: StatusMissing, Message: "Not authenticated"}
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return principal.User{}, &Error{Status: StatusExpired, Message: "Authentication token has expired", Err: err}
		}
		return principal.User{}, &Error{Status: StatusInvalid, Message: fmt.Sprintf("Invalid authentication token: %v", err), Err: err}
	}

	if claims.Subject == "" {
		return principal.User{}, &Error{Status: StatusMissingSubject, Message: "Invalid authentication token: missing user ID"}
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return principal.User{}, &Error{Status: StatusInvalidSubject, Message: fmt.Sprintf("Invalid user ID format: %v", err), Err: err}
	}

	return principal.User{ID: userID, Email: claims.Email}, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the user for handlers.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))

		user, err := v.Authenticate(tokenString)
		if err != nil {
			var authErr *Error
			if !errors.As(err, &authErr) {
				authErr = &Error{Status: StatusInvalid, Message: "Invalid authentication token", Err: err}
			}
			metrics.RecordAuth(authErr.Status)
			v.log.Debug().
				Str("path", c.FullPath()).
				Str("status", authErr.Status).
				Err(authErr.Err).
				Msg("request rejected")
			platformErr := platformerrors.NewError(c.Request.Context(), platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeUnauthorized, authErr.Message, authErr.Err, errorCodes[authErr.Status])
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{
				Code:          platformErr.GetUUID(),
				Error:         "unauthorized",
				Message:       authErr.Message,
				ErrorInstance: platformErr,
				RequestID:     platformErr.GetRequestID(),
			})
			return
		}

		metrics.RecordAuth(StatusSuccess)
		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(postgrest.WithAccessToken(c.Request.Context(), tokenString))
		c.Next()
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(c *gin.Context) (principal.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return principal.User{}, false
	}
	user, ok := val.(principal.User)
	return user, ok
}

// IssueToken mints an HS256 token the validator accepts. Used by the CLI for local testing.
func IssueToken(secret, audience string, subject uuid.UUID, email string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
