//go:generate go run go.uber.org/mock/mockgen -source=messages.go -destination=../mocks/mock_messages.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageStore interface {
	Post(from, to, text string, kind domain.Kind) (domain.Message, error)
	ListVisible(viewer string, limit int) ([]domain.Message, error)
	Edit(id uuid.UUID, byName, newTo, newText string, newKind domain.Kind) error
	Delete(id uuid.UUID, byName string) error
	RecordDeparture(name string) (domain.Message, error)
	Search(ctx context.Context, viewer, terms string, limit int) ([]domain.Message, error)
}

// MessageService owns the message log: per-viewer visibility, author-only
// mutation, and the system notice path used by the reaper.
type MessageService struct {
	messages  repositories.IMessageRepository
	registry  IRegistry
	moderator *moderation.Moderator
	clock     contract.Clock
	stats     *observability.RelayStats
	log       *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	registry IRegistry,
	moderator *moderation.Moderator,
	clock contract.Clock,
	stats *observability.RelayStats,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		registry:  registry,
		moderator: moderator,
		clock:     clock,
		stats:     stats,
		log:       log,
	}
}

// Post stores a participant-authored message. Membership is re-verified on
// every call rather than cached: a participant evicted between two posts is
// rejected on the second one.
func (s *MessageService) Post(from, to, text string, kind domain.Kind) (domain.Message, error) {
	live, err := s.registry.Exists(from)
	if err != nil {
		return domain.Message{}, err
	}
	if !live {
		return domain.Message{}, errors.ErrNotRegistered
	}

	censored := s.censor(text)
	msg := domain.Message{
		ID:   uuid.New(),
		From: from,
		To:   to,
		Text: censored,
		Kind: kind,
		Lang: detectLang(censored),
		At:   s.clock.Now(),
	}
	if err := s.messages.Insert(toDiskMessage(msg)); err != nil {
		return domain.Message{}, err
	}

	s.stats.Posted.Add(1)
	return msg, nil
}

// ListVisible returns the newest `limit` messages the viewer may read, in
// chronological order. Non-positive limits fall back to the configured
// default down in the repository, deterministically.
func (s *MessageService) ListVisible(viewer string, limit int) ([]domain.Message, error) {
	window, err := s.messages.FindVisible(viewer, limit)
	if err != nil {
		return nil, err
	}
	return fromDiskMessages(window), nil
}

// Edit replaces recipient, text and kind of an existing message when byName
// is its original author. The new text goes through the same censor as Post.
func (s *MessageService) Edit(id uuid.UUID, byName, newTo, newText string, newKind domain.Kind) error {
	censored := s.censor(newText)
	err := s.messages.UpdateByID(id, byName, newTo, censored, string(newKind), detectLang(censored))
	if err != nil {
		return err
	}
	s.stats.Edited.Add(1)
	return nil
}

func (s *MessageService) Delete(id uuid.UUID, byName string) error {
	if err := s.messages.DeleteByID(id, byName); err != nil {
		return err
	}
	s.stats.Deleted.Add(1)
	return nil
}

// RecordDeparture writes the system notice for an evicted participant. It
// deliberately skips the membership check: the author no longer exists by
// the time the reaper calls this.
func (s *MessageService) RecordDeparture(name string) (domain.Message, error) {
	notice := domain.NewDepartureNotice(name, s.clock.Now())
	if err := s.messages.Insert(toDiskMessage(notice)); err != nil {
		return domain.Message{}, err
	}
	return notice, nil
}

// Search runs a full-text query over the log, restricted to what the viewer
// could see through ListVisible.
func (s *MessageService) Search(ctx context.Context, viewer, terms string, limit int) ([]domain.Message, error) {
	matches, err := s.messages.SearchVisible(ctx, terms, viewer, limit)
	if err != nil {
		return nil, err
	}
	return fromDiskMessages(matches), nil
}

func (s *MessageService) censor(text string) string {
	censored, matched := s.moderator.Censor(text)
	if len(matched) > 0 {
		s.stats.Censored.Add(1)
	}
	return censored
}

func detectLang(text string) string {
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6391()
}

func toDiskMessage(m domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Kind: string(m.Kind),
		Lang: m.Lang,
		At:   m.At,
	}
}

func fromDiskMessages(msgs []repositories.DiskMessage) []domain.Message {
	return lo.Map(msgs, func(item repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:   item.ID,
			From: item.From,
			To:   item.To,
			Text: item.Text,
			Kind: domain.Kind(item.Kind),
			Lang: item.Lang,
			At:   item.At,
		}
	})
}
