// Package correlation generates the identifiers that tie one progress channel
// to one submission request.
package correlation

import "github.com/google/uuid"

// Generator produces a fresh correlation ID for every submission attempt.
type Generator interface {
	Next() string
}

// UUID issues random (version 4) UUID strings.
type UUID struct{}

// Next returns a new random identifier.
func (UUID) Next() string {
	return uuid.NewString()
}

// Func adapts a plain function to the Generator interface.
type Func func() string

// Next calls f.
func (f Func) Next() string {
	return f()
}

// Sequence returns a generator that hands out ids in order and falls back to
// random identifiers once they are exhausted. Tests use it for stable ids.
func Sequence(ids ...string) Generator {
	next := 0
	return Func(func() string {
		if next < len(ids) {
			id := ids[next]
			next++
			return id
		}
		return uuid.NewString()
	})
}
