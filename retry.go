package bq

import (
	"time"

	"github.com/beanqueue/bq-go/internal/retrypolicy"
)

// Policy, and the DelayRetry/ExponentialBackoffRetry/LimitAttempt
// combinators, are re-exported at the package root so processor packages
// don't need to import internal/retrypolicy directly.
type Policy = retrypolicy.Policy

func DelayRetry(delay time.Duration) Policy {
	return retrypolicy.DelayRetry(delay)
}

func ExponentialBackoffRetry(base, offset, scalar float64) Policy {
	return retrypolicy.ExponentialBackoffRetry(base, offset, scalar)
}

func LimitAttempt(max int, inner Policy) Policy {
	return retrypolicy.LimitAttempt(max, inner)
}
