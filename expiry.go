package catleg

import "time"

// ExpiryState classifies a reference article relative to an instant.
type ExpiryState int

// Expiry states.
const (
	// ExpiryOpen means the article has no enforceable expiration date.
	ExpiryOpen ExpiryState = iota
	// ExpiryScheduled means the article will expire at a known date.
	ExpiryScheduled
	// ExpiryPassed means the article expired strictly before now.
	ExpiryPassed
)

func (s ExpiryState) String() string {
	switch s {
	case ExpiryOpen:
		return "open"
	case ExpiryScheduled:
		return "expiring"
	case ExpiryPassed:
		return "expired"
	}
	return "unknown"
}

// CheckExpiry reports whether ref is open-ended, scheduled to expire or
// already expired at now. An article expiring exactly at now is not yet
// expired.
func CheckExpiry(ref *ReferenceArticle, now time.Time) ExpiryState {
	if ref.IsOpenEnded() {
		return ExpiryOpen
	}
	if now.After(ref.ExpiresAt) {
		return ExpiryPassed
	}
	return ExpiryScheduled
}
