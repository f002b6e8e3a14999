package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload accepted by BearerStrategy.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// BearerStrategy authenticates `Authorization: Bearer <jwt>` requests signed
// with HS256.
type BearerStrategy struct {
	realm  string
	secret []byte
	issuer string
}

// NewBearerStrategy creates a Bearer strategy. An empty issuer skips the
// issuer check.
func NewBearerStrategy(realm string, secret []byte, issuer string) (*BearerStrategy, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: bearer strategy requires a signing secret")
	}
	if realm == "" {
		realm = "Users"
	}
	return &BearerStrategy{realm: realm, secret: secret, issuer: issuer}, nil
}

// Challenge returns the WWW-Authenticate value sent on failure.
func (s *BearerStrategy) Challenge(errCode string) string {
	if errCode == "" {
		return fmt.Sprintf("Bearer realm=%q", s.realm)
	}
	return fmt.Sprintf("Bearer realm=%q, error=%q", s.realm, errCode)
}

// Authenticate implements Strategy.
func (s *BearerStrategy) Authenticate(req *ShimRequest, v Verdict) {
	scheme, token, found := strings.Cut(req.Headers.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		v.Fail(s.Challenge(""))
		return
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || claims.Subject == "" {
		v.Fail(s.Challenge("invalid_token"))
		return
	}
	v.Success(&UserProfile{ID: claims.Subject, Name: claims.Name, Email: claims.Email})
}

// IssueToken signs an HS256 token for user, valid for ttl.
func (s *BearerStrategy) IssueToken(user *UserProfile, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
