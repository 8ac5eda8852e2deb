package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

// Claims is the access token payload: {id, login} plus registered claims.
type Claims struct {
	UserID int64  `json:"id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

// Token failure messages, one per failure mode.
const (
	MsgTokenMissing   = "Token de autenticação não fornecido"
	MsgTokenMalformed = "Token mal formatado"
	MsgTokenInvalid   = "Token inválido ou expirado"
)

// IssueToken signs an HS256 access token for the principal.
func IssueToken(cfg config.JWTConfig, p types.Principal, now time.Time) (string, error) {
	claims := Claims{
		UserID: p.ID,
		Login:  p.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, expiry, issuer and audience. Failures come
// back as unauthorized errors whose message names the failure mode.
func ParseToken(cfg config.JWTConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(cfg.SecretKey), nil
	}, opts...)
	if err != nil {
		msg := MsgTokenInvalid
		if errors.Is(err, jwt.ErrTokenMalformed) {
			msg = MsgTokenMalformed
		}
		return nil, &api.Error{Kind: api.KindUnauthorized, Message: msg, Err: err}
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, api.NewUnauthorized(MsgTokenInvalid)
	}
	if !api.VerifyAudience(claims.Audience, cfg.Audience) {
		return nil, api.NewUnauthorized(MsgTokenInvalid)
	}
	return claims, nil
}

// Principal extracts the caller identity from verified claims.
func (c *Claims) Principal() types.Principal {
	return types.Principal{ID: c.UserID, Login: c.Login}
}
