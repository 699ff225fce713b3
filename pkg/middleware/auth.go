package middleware

import (
	"barhop/pkg/logger"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var errInvalidToken = errors.New("invalid access token")

type authClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// TokenParser verifies HS256 bearer tokens and resolves the user they carry.
type TokenParser struct {
	secret []byte
	issuer string
}

func NewTokenParser(secret, issuer string) *TokenParser {
	return &TokenParser{secret: []byte(secret), issuer: issuer}
}

func (p *TokenParser) Parse(tokenString string) (*User, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(30 * time.Second),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}

	return &User{ID: claims.Subject, Name: claims.Name}, nil
}

// OptionalAuth attaches the bearer token's user to the request context.
// Missing or invalid tokens are served anonymously; no route requires a user.
func OptionalAuth(parser *TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" || parser == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := parser.Parse(tokenString)
			if err != nil {
				log.Debug("Ignoring invalid bearer token",
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
}
