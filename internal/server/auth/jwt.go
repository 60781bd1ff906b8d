// Package auth issues and validates the HS256 access tokens handed out by
// the identity provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/common"
	"github.com/dmitrijs2005/satkeeper/internal/permissions"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims extends the registered claims with the classification the token was
// issued for and the capabilities that classification grants.
type Claims struct {
	jwt.RegisteredClaims
	Classification string   `json:"classification"`
	Scope          []string `json:"scope"`
}

// GenerateToken signs an access token for userID. The token carries a fresh
// jti so it can be revoked individually. The returned claims are the ones
// that were signed.
func GenerateToken(userID string, classification permissions.Classification, secretKey []byte, validityDuration time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Classification: classification.String(),
		Scope:          permissions.ForClassification(classification),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", nil, err
	}

	return tokenString, claims, nil
}

// ParseToken validates tokenString and returns its claims. Expired tokens
// yield common.ErrTokenExpired; any other failure wraps common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ParseTokenAllowExpired checks the signature of tokenString but none of its
// time based claims. The token must still carry an expiry.
func ParseTokenAllowExpired(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func keyFunc(secretKey []byte) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		return secretKey, nil
	}
}
