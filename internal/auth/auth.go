// Package auth provides JWT-based bearer token issuing and validation,
// and HTTP middleware that authenticates requests via the Authorization header.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/miniblog/internal/logger"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

type userKeeper interface {
	FindUserByID(ctx context.Context, id int) (*user.User, bool, error)
}

// Auth issues and validates the bearer tokens of the service.
type Auth struct {
	// db is the interface to the user data storage.
	db userKeeper

	// signingSecretKey is the key used to sign JWTs.
	signingSecretKey []byte

	// tokenTTL is the lifetime of an issued token.
	tokenTTL time.Duration

	// now is the wall clock used when issuing tokens.
	now func() time.Time
}

// InitOption is a functional option for New.
type InitOption func(*Auth)

// WithNowFunc replaces the wall clock used for token timestamps.
// Tests use it to step through the expiry boundary.
func WithNowFunc(now func() time.Time) InitOption {
	return func(a *Auth) {
		a.now = now
	}
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// ErrInvalidTokenOrJwtParsing is returned for any token that fails signature
// verification, is malformed, is expired, or lacks the user id claim.
// Callers treat every variant the same: the request is unauthorized.
var ErrInvalidTokenOrJwtParsing = fmt.Errorf("invalid or unparsable token")

// New creates a new Auth handler with the given user data access layer,
// JWT signing secret, and token lifetime.
func New(db userKeeper, signingSecretKey []byte, tokenTTL time.Duration, optionsProto ...InitOption) *Auth {
	result := &Auth{
		db:               db,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
		now:              time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(result)
	}

	return result
}

// BuildJWTString issues a signed token embedding the user id with an
// expiration of now + tokenTTL.
func (a *Auth) BuildJWTString(userID int) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the token signature and expiry and returns the
// embedded user id. Expiry is strict: a token is rejected from the exact
// moment its expiration timestamp is reached.
func (a *Auth) GetUserIDFromToken(tokenString string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidTokenOrJwtParsing
	}

	if claims.UserID == 0 {
		return 0, ErrInvalidTokenOrJwtParsing
	}

	return claims.UserID, nil
}

// AuthenticateUser is an HTTP middleware that authenticates incoming requests
// using the bearer token from the Authorization header. The user row is
// fetched from storage, so tokens of deleted users are rejected too.
// Every authentication failure collapses to a plain 401 response.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.GetUserIDFromToken(getBearerToken(request))
		if err != nil {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		usr, found, err := a.db.FindUserByID(request.Context(), userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.FindUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

func getBearerToken(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")

	return strings.TrimPrefix(tokenString, "Bearer ")
}
