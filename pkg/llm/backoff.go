package llm

import (
	"context"
	"strings"
	"time"
)

// Policy is the fixed-delay retry policy for classification calls.
type Policy struct {
	// MaxAttempts bounds the number of remote calls per document.
	MaxAttempts int
	// Cooldown is waited after every successful call.
	Cooldown time.Duration
	// QuotaBackoff is waited after a call rejected for quota reasons.
	QuotaBackoff time.Duration
}

// DefaultPolicy keeps a single client under the Gemini free-tier rate limit.
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	Cooldown:     2 * time.Second,
	QuotaBackoff: 30 * time.Second,
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsQuotaError reports whether err signals an exhausted service quota.
//
// The service only exposes this through its error text, so matching is a
// case-insensitive substring check for "quota" or "exhausted". Keep any change
// to the provider's error format confined to this function.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "exhausted")
}
