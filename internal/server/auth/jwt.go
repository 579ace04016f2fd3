// Package auth implements the credential primitives of the server: signed
// access tokens, the session revocation whitelist, and password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Context identifies the authenticated caller of an operation.
type Context struct {
	CallerID  string
	SessionID string
}

// Claims embeds the registered claims plus the caller/session pair the
// transport layer needs to rebuild a Context.
type Claims struct {
	jwt.RegisteredClaims
	CallerID  string `json:"callerId"`
	SessionID string `json:"sessionId"`
}

// GenerateAccessToken mints a signed HS256 token embedding the caller and
// session ids with the current time as IssuedAt.
func GenerateAccessToken(ctx Context, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		CallerID:  ctx.CallerID,
		SessionID: ctx.SessionID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseAccessToken verifies the token signature and its freshness: tokens
// issued more than freshness ago fail with common.ErrTokenStale, everything
// else that does not verify fails with common.ErrTokenInvalid. Revocation is
// checked separately by the session manager; a valid result here only proves
// the token was minted by us recently.
func ParseAccessToken(tokenString string, secretKey []byte, freshness time.Duration) (*Context, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenStale
		}
		return nil, common.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}

	if claims.IssuedAt == nil {
		return nil, common.ErrTokenInvalid
	}
	if time.Since(claims.IssuedAt.Time) > freshness {
		return nil, common.ErrTokenStale
	}
	if claims.CallerID == "" || claims.SessionID == "" {
		return nil, common.ErrTokenInvalid
	}

	return &Context{CallerID: claims.CallerID, SessionID: claims.SessionID}, nil
}
