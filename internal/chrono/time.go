package chrono

import (
	"fmt"
	"time"
)

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location, truncated to the minute.
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the system clock.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl loads the named location, an empty name uses the local timezone.
func NewStandardImpl(name string) (StandardImpl, error) {
	if name == "" {
		return StandardImpl{location: time.Local}, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return StandardImpl{}, fmt.Errorf("load timezone '%s': %w", name, err)
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location).Truncate(time.Minute)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is an API that always reports the same time.
type FixedImpl struct {
	Time time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Time.Truncate(time.Minute)
}

func (f FixedImpl) Location() *time.Location {
	return f.Time.Location()
}
