// Package throttle limits password guessing by locking an email address out
// after too many failed logins.
//
// Two backends exist: Memory keeps counters in the process and suits a single
// server instance; Redis keeps them in a shared store with native key expiry
// and stays correct when several instances serve the same users.
package throttle

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
)

const (
	DefaultMaxFailures = 5
	DefaultLockout     = 15 * time.Minute
)

// Throttle tracks failed logins per email. Implementations normalize the
// email the same way user lookup does, so case variations share a counter.
type Throttle interface {
	IsLocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
}

// Policy sets when an email is locked and for how long.
type Policy struct {
	MaxFailures int
	Lockout     time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = DefaultMaxFailures
	}
	if p.Lockout <= 0 {
		p.Lockout = DefaultLockout
	}
	return p
}

func key(email string) string {
	return common.NormalizeEmail(email)
}
