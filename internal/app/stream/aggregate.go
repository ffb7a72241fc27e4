// Package stream reduces incremental backend output into finished messages.
package stream

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/PabloGalante/coollearn/internal/domain"
)

// Observer receives the cumulative text after every delta.
type Observer func(text string)

// Aggregate consumes s to the end and returns the concatenated text.
//
// observe, when non-nil, is called synchronously after every delta with the
// text accumulated so far, including deltas that carried no text. A delta
// error aborts the whole reduction: no partial text is returned.
func Aggregate(s domain.Stream, observe Observer) (string, error) {
	var b strings.Builder
	for d, err := range s {
		if err != nil {
			var be *domain.BackendCallError
			if errors.As(err, &be) || errors.Is(err, domain.ErrStreamConsumed) {
				return "", err
			}
			return "", &domain.BackendCallError{Op: "stream", Err: err}
		}
		if text, ok := d.Content(); ok {
			b.WriteString(text)
		}
		if observe != nil {
			observe(b.String())
		}
	}
	return b.String(), nil
}

// Once wraps s so only its first iteration reaches the backend. Later
// iterations yield ErrStreamConsumed and stop.
func Once(s domain.Stream) domain.Stream {
	var used atomic.Bool
	return func(yield func(domain.Delta, error) bool) {
		if used.Swap(true) {
			yield(domain.Delta{}, domain.ErrStreamConsumed)
			return
		}
		s(yield)
	}
}

// FromDeltas builds a stream over fixed deltas.
func FromDeltas(deltas ...domain.Delta) domain.Stream {
	return func(yield func(domain.Delta, error) bool) {
		for _, d := range deltas {
			if !yield(d, nil) {
				return
			}
		}
	}
}

// FromStrings builds a stream where "" becomes a delta with no text,
// handy for scripted replies.
func FromStrings(parts ...string) domain.Stream {
	deltas := make([]domain.Delta, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			deltas = append(deltas, domain.Delta{})
			continue
		}
		deltas = append(deltas, domain.TextDelta(p))
	}
	return FromDeltas(deltas...)
}
