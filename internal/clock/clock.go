package clock

import "time"

// Clock supplies the current instant. Services take one instead of calling
// time.Now directly so tests can run at a frozen point in time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// NewSystem returns a Clock reporting wall-clock time in UTC.
func NewSystem() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}

// NewFixed returns a Clock frozen at the given instant.
func NewFixed(t time.Time) Clock {
	frozen := t.UTC()
	return Func(func() time.Time { return frozen })
}
