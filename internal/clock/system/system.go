// Package system provides the wall clock and a fixed clock for tests.
package system

import (
	"time"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

var (
	_ rank.Clock = Clock{}
	_ rank.Clock = (*Fixed)(nil)
)

// Clock implements rank.Clock using time.Now in UTC.
type Clock struct{}

// New creates a new Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed struct {
	now time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

// Now returns the current fixed instant.
func (f *Fixed) Now() time.Time {
	return f.now
}
