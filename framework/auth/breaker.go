package auth

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures GuardVerify.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Failures is the number of consecutive verify errors that opens the
	// breaker.
	Failures uint32
	// VerifyTimeout bounds one verify call (default 10s). A verify that has
	// not called done by then fails with ErrVerifyTimeout, which counts as a
	// failure.
	VerifyTimeout time.Duration
	Logger        *zap.Logger
}

// ErrVerifyTimeout is reported when a guarded verify does not call done in
// time.
var ErrVerifyTimeout = errors.New("auth: credential verification timed out")

// GuardVerify wraps verify in a circuit breaker. Only errors count as
// failures; rejected credentials do not. While the breaker is open, verify
// is not called and done receives gobreaker.ErrOpenState.
func GuardVerify(verify BasicVerifyFunc, s BreakerSettings) BasicVerifyFunc {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.VerifyTimeout <= 0 {
		s.VerifyTimeout = 10 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("credential verifier breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	type result struct {
		user *UserProfile
		err  error
	}
	return func(username, password string, done func(*UserProfile, error)) {
		go func() {
			v, err := cb.Execute(func() (any, error) {
				ch := make(chan result, 1)
				verify(username, password, func(user *UserProfile, err error) {
					select {
					case ch <- result{user, err}:
					default:
					}
				})
				timer := time.NewTimer(s.VerifyTimeout)
				defer timer.Stop()
				select {
				case o := <-ch:
					return o.user, o.err
				case <-timer.C:
					return nil, ErrVerifyTimeout
				}
			})
			if err != nil {
				done(nil, err)
				return
			}
			user, _ := v.(*UserProfile)
			done(user, nil)
		}()
	}
}
