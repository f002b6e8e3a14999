package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
)

// UserProfile is the identity a successful authentication yields.
type UserProfile struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// ErrUnauthenticated matches every *ChallengeError.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// ChallengeError is returned when a strategy fails the request. Its message
// is the challenge itself, e.g. `Basic realm="users"`, suitable for a
// WWW-Authenticate header.
type ChallengeError struct {
	Challenge string
}

func (e *ChallengeError) Error() string { return e.Challenge }

func (e *ChallengeError) Is(target error) bool { return target == ErrUnauthenticated }

// ShimRequest is the minimal request view handed to strategies.
type ShimRequest struct {
	Headers http.Header
	Query   url.Values
	URL     string
	Path    string
	Method  string
}

// NewShimRequest copies the fields strategies may read from r.
func NewShimRequest(r *http.Request) *ShimRequest {
	shim := &ShimRequest{Headers: http.Header{}, Query: url.Values{}}
	if r == nil {
		return shim
	}
	shim.Headers = r.Header.Clone()
	shim.Method = r.Method
	if r.URL != nil {
		shim.Query = r.URL.Query()
		shim.URL = r.URL.RequestURI()
		shim.Path = r.URL.Path
	}
	return shim
}

// Verdict receives the outcome of a strategy. Exactly one call takes effect;
// later calls are ignored.
type Verdict interface {
	Success(user *UserProfile)
	Fail(challenge string)
	Error(err error)
}

// Strategy is a callback-style authenticator. Authenticate must eventually
// call one method of v, synchronously or from another goroutine.
type Strategy interface {
	Authenticate(req *ShimRequest, v Verdict)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(req *ShimRequest, v Verdict)

// Authenticate calls f.
func (f StrategyFunc) Authenticate(req *ShimRequest, v Verdict) { f(req, v) }

type outcome struct {
	user *UserProfile
	err  error
}

// verdict is created per call so concurrent authentications never share
// handlers.
type verdict struct {
	once sync.Once
	ch   chan outcome
}

func newVerdict() *verdict {
	return &verdict{ch: make(chan outcome, 1)}
}

func (v *verdict) settle(o outcome) {
	v.once.Do(func() { v.ch <- o })
}

func (v *verdict) Success(user *UserProfile) { v.settle(outcome{user: user}) }

func (v *verdict) Fail(challenge string) {
	v.settle(outcome{err: &ChallengeError{Challenge: challenge}})
}

func (v *verdict) Error(err error) {
	if err == nil {
		err = errors.New("auth: strategy reported an error without details")
	}
	v.settle(outcome{err: err})
}

// StrategyAdapter turns a callback-style Strategy into a blocking call.
type StrategyAdapter struct {
	strategy Strategy
}

// NewStrategyAdapter wraps strategy.
func NewStrategyAdapter(strategy Strategy) *StrategyAdapter {
	return &StrategyAdapter{strategy: strategy}
}

// Authenticate runs the strategy against r and waits for its verdict. If the
// strategy never reports one, Authenticate waits until ctx is done; callers
// wanting a deadline must set it on ctx.
func (a *StrategyAdapter) Authenticate(ctx context.Context, r *http.Request) (*UserProfile, error) {
	v := newVerdict()
	a.strategy.Authenticate(NewShimRequest(r), v)
	select {
	case o := <-v.ch:
		return o.user, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
