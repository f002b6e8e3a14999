package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// BasicVerifyFunc checks a username/password pair and reports through done:
// a non-nil error aborts, a nil user fails the request, anything else succeeds.
// done may be called from another goroutine.
type BasicVerifyFunc func(username, password string, done func(user *UserProfile, err error))

// BasicStrategy implements HTTP Basic authentication (RFC 7617).
type BasicStrategy struct {
	realm  string
	verify BasicVerifyFunc
}

// NewBasicStrategy creates a Basic strategy for realm.
func NewBasicStrategy(realm string, verify BasicVerifyFunc) *BasicStrategy {
	if realm == "" {
		realm = "Users"
	}
	return &BasicStrategy{realm: realm, verify: verify}
}

// Challenge returns the WWW-Authenticate value sent on failure.
func (s *BasicStrategy) Challenge() string {
	return fmt.Sprintf("Basic realm=%q", s.realm)
}

// Authenticate implements Strategy.
func (s *BasicStrategy) Authenticate(req *ShimRequest, v Verdict) {
	username, password, ok := parseBasic(req.Headers.Get("Authorization"))
	if !ok {
		v.Fail(s.Challenge())
		return
	}
	s.verify(username, password, func(user *UserProfile, err error) {
		switch {
		case err != nil:
			v.Error(err)
		case user == nil:
			v.Fail(s.Challenge())
		default:
			v.Success(user)
		}
	})
}

func parseBasic(header string) (username, password string, ok bool) {
	scheme, credentials, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentials))
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(decoded), ":")
}
