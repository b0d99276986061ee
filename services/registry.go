//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=../mocks/mock_registry.go -package=mocks
package services

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	chaterrors "chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type IRegistry interface {
	Register(name string) error
	List() ([]domain.Participant, error)
	Touch(name string) error
	Exists(name string) (bool, error)
	EvictIdle(threshold time.Duration) ([]domain.Participant, error)
}

// RegistryService owns participant presence. A single mutex serializes every
// read-modify-write on the presence set, so a Touch racing an EvictIdle sweep
// either lands before the selection (and protects the record) or after the
// eviction (and reports NotFound), never both.
type RegistryService struct {
	mu           sync.Mutex
	participants repositories.IParticipantRepository
	clock        contract.Clock
	stats        *observability.RelayStats
	log          *slog.Logger
}

func NewRegistryService(
	participants repositories.IParticipantRepository,
	clock contract.Clock,
	stats *observability.RelayStats,
	log *slog.Logger,
) *RegistryService {
	return &RegistryService{
		participants: participants,
		clock:        clock,
		stats:        stats,
		log:          log,
	}
}

// Register creates the presence record and its arrival notice as one unit.
// Returns ErrNameTaken when the name is already present (case-sensitive).
func (s *RegistryService) Register(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	notice := domain.NewArrivalNotice(name, now)
	err := s.participants.Insert(
		repositories.DiskParticipant{Name: name, LastSeen: now},
		toDiskMessage(notice),
	)
	if err != nil {
		return err
	}

	s.stats.Registered.Add(1)
	s.log.Info("Participant registered", "name", name)
	return nil
}

// List returns the current presence set. Ordering follows storage key order
// and is not guaranteed stable across calls.
func (s *RegistryService) List() ([]domain.Participant, error) {
	participants, err := s.participants.FindAll()
	if err != nil {
		return nil, err
	}
	return lo.Map(participants, func(p repositories.DiskParticipant, _ int) domain.Participant {
		return domain.Participant{Name: p.Name, LastSeen: p.LastSeen}
	}), nil
}

// Touch refreshes the liveness timestamp of a registered participant.
func (s *RegistryService) Touch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants.UpdateLastSeen(name, s.clock.Now())
}

func (s *RegistryService) Exists(name string) (bool, error) {
	_, err := s.participants.FindByName(name)
	if errors.Is(err, chaterrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EvictIdle removes every participant idle for longer than threshold and
// returns exactly the set removed.
func (s *RegistryService) EvictIdle(threshold time.Duration) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted, err := s.participants.DeleteIdle(s.clock.Now(), threshold)
	if err != nil {
		return nil, err
	}

	if len(evicted) > 0 {
		s.stats.Evicted.Add(uint64(len(evicted)))
		s.log.Info("Evicted idle participants", "count", len(evicted))
	}
	return lo.Map(evicted, func(p repositories.DiskParticipant, _ int) domain.Participant {
		return domain.Participant{Name: p.Name, LastSeen: p.LastSeen}
	}), nil
}
