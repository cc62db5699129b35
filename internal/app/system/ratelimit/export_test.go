// internal/app/system/ratelimit/export_test.go
package ratelimit

import "time"

// SetClock replaces the limiter's clock in tests.
func (l *Limiter) SetClock(now func() time.Time) { l.now = now }
