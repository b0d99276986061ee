package services

import "chat-relay/errors"

// SessionGate validates that a caller-asserted identity is a currently
// registered participant. Every mutating operation except registration goes
// through it before touching the registry or the message log.
type SessionGate struct {
	registry IRegistry
}

func NewSessionGate(registry IRegistry) SessionGate {
	return SessionGate{registry: registry}
}

// Authorize returns nil for a live participant and ErrNotRegistered
// otherwise. Storage failures propagate as-is.
func (g SessionGate) Authorize(claimedName string) error {
	live, err := g.registry.Exists(claimedName)
	if err != nil {
		return err
	}
	if !live {
		return errors.ErrNotRegistered
	}
	return nil
}
