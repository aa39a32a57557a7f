package domain

import "time"

// Rate-limit granularity names, used in bucket keys and denial payloads.
const (
	GranularityMinute = "minute"
	GranularityHour   = "hour"
	GranularityDay    = "day"
)

// RateLimits holds one tier's request allowances per time granularity.
// Unlimited (-1) disables the check for that granularity.
type RateLimits struct {
	PerMinute int64
	PerHour   int64
	PerDay    int64
}

// AdmitResult is the outcome of a rate-limit check. On denial, Granularity
// names the exhausted window and RetryAfter the time left in its bucket.
type AdmitResult struct {
	Allowed     bool
	Granularity string
	Count       int64
	Limit       int64
	RetryAfter  time.Duration
}
