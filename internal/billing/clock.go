// internal/billing/clock.go
package billing

import "time"

// Clock supplies the current time once per request.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
