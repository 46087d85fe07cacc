package storage

import (
	"fmt"
	"log"
	"time"
)

// Retry policy for persistence writes. Variables so tests can shrink the
// delay.
var (
	RetryAttempts = 3
	RetryDelay    = 2 * time.Second
)

// WithRetry runs fn up to RetryAttempts times with a fixed pause between
// attempts. It returns the last error instead of panicking so a flaky
// database never takes the webhook down.
func WithRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				log.Printf("✅ %s succeeded on attempt %d", op, attempt)
			}
			return nil
		}
		log.Printf("⚠️ %s failed (attempt %d/%d): %v", op, attempt, RetryAttempts, err)
		if attempt < RetryAttempts {
			time.Sleep(RetryDelay)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
