// Package domain contains core concepts of the chat relay.
// This file defines Message records and their visibility rules.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"chat-relay/errors"

	"github.com/google/uuid"
)

// Broadcast is the reserved recipient meaning "visible to every participant".
const Broadcast = "Todos"

const (
	ArrivalText   = "entra na sala..."
	DepartureText = "sai da sala..."
)

type Kind string

const (
	KindChat    Kind = "message"
	KindPrivate Kind = "private_message"
	KindStatus  Kind = "status"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindChat, KindPrivate, KindStatus:
		return Kind(s), nil
	default:
		return "", errors.ErrUnknownKind
	}
}

// Message is a single relay record. ID, From and At are fixed at creation;
// an author-authorized edit may replace To, Text and Kind only.
type Message struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	Kind Kind
	Lang string
	At   time.Time
}

// VisibleTo reports whether viewer is allowed to read the message:
// broadcasts, messages addressed to the viewer, and the viewer's own.
func (m Message) VisibleTo(viewer string) bool {
	return m.To == Broadcast || m.To == viewer || m.From == viewer
}

// NewArrivalNotice is the system-authored broadcast recorded when a
// participant registers.
func NewArrivalNotice(name string, at time.Time) Message {
	return Message{
		ID:   uuid.New(),
		From: name,
		To:   Broadcast,
		Text: ArrivalText,
		Kind: KindStatus,
		At:   at,
	}
}

// NewDepartureNotice is the system-authored broadcast recorded when the
// reaper evicts an idle participant. The author no longer exists by the
// time this is written.
func NewDepartureNotice(name string, at time.Time) Message {
	return Message{
		ID:   uuid.New(),
		From: name,
		To:   Broadcast,
		Text: DepartureText,
		Kind: KindStatus,
		At:   at,
	}
}
