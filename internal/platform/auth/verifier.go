package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenExpired signals that the provided bearer token has expired.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid signals that the provided bearer token is invalid for
	// other reasons.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Verifier validates HMAC-signed bearer tokens and extracts the buyer
// identity from the subject claim.
type Verifier struct {
	signingKey []byte
	issuer     string
}

// NewVerifier constructs a Verifier. The signing key is required; the issuer
// is enforced only when non-empty.
func NewVerifier(signingKey, issuer string) (*Verifier, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("auth: signing key is required")
	}
	return &Verifier{
		signingKey: []byte(signingKey),
		issuer:     strings.TrimSpace(issuer),
	}, nil
}

// Verify parses and validates the token and returns the authenticated buyer.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Identity{}, ErrTokenInvalid
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return Identity{}, fmt.Errorf("%w: issuer mismatch", ErrTokenInvalid)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: subject claim is required", ErrTokenInvalid)
	}
	return Identity{BuyerID: subject}, nil
}
