// Package domain contains core concepts of the chat relay.
// This file defines Participant presence records and their invariants.
package domain

import "time"

// Participant is a registered presence. Name is the registry key,
// case-sensitive; LastSeen only moves forward while the record exists.
type Participant struct {
	Name     string
	LastSeen time.Time
}

// IdleSince reports whether the participant's last liveness signal is
// older than threshold at the given instant.
func (p Participant) IdleSince(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.LastSeen) > threshold
}
