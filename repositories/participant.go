package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"
	chaterrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "participant:"

type IParticipantRepository interface {
	Insert(p DiskParticipant, arrival DiskMessage) error
	FindByName(name string) (DiskParticipant, error)
	FindAll() ([]DiskParticipant, error)
	UpdateLastSeen(name string, at time.Time) error
	DeleteIdle(now time.Time, threshold time.Duration) ([]DiskParticipant, error)
}

type ParticipantRepository struct {
	db    *badger.DB
	index *SearchIndex
	log   *slog.Logger
}

func NewParticipantRepository(db *badger.DB, index *SearchIndex, log *slog.Logger) ParticipantRepository {
	return ParticipantRepository{db: db, index: index, log: log}
}

// DiskParticipant is the storage-layer representation of a presence record.
type DiskParticipant struct {
	Name     string
	LastSeen time.Time
}

// storedParticipant is the encoded form kept in BadgerDB.
type storedParticipant struct {
	Name     string `json:"name"`
	LastSeen int64  `json:"last_seen"` // unix nanoseconds
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// Insert persists a new participant together with its arrival notice in a
// single transaction. Either both records land or neither does: a reader can
// never observe a participant without its arrival broadcast.
// Returns ErrNameTaken when the name is already registered (exact match).
func (r ParticipantRepository) Insert(p DiskParticipant, arrival DiskMessage) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := participantKey(p.Name)
		if _, err := txn.Get(key); err == nil {
			return chaterrors.ErrNameTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := putParticipant(txn, p); err != nil {
			return err
		}
		return putMessage(txn, arrival)
	})
	if err != nil {
		return err
	}
	indexBestEffort(r.index, r.log, arrival)
	return nil
}

func (r ParticipantRepository) FindByName(name string) (DiskParticipant, error) {
	var p DiskParticipant
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		p = found
		return nil
	})
	return p, err
}

// FindAll returns the current presence set in key order.
func (r ParticipantRepository) FindAll() ([]DiskParticipant, error) {
	var participants []DiskParticipant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				p, err := DecodeParticipant(val)
				if err != nil {
					return err
				}
				participants = append(participants, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return participants, err
}

// UpdateLastSeen refreshes the liveness timestamp of an existing participant.
// The read and the write share one transaction so a concurrent eviction of the
// same name cannot slip between them. Returns ErrNotFound for unknown names.
func (r ParticipantRepository) UpdateLastSeen(name string, at time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		p, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		// LastSeen never moves backwards while the record exists.
		if at.After(p.LastSeen) {
			p.LastSeen = at
		}
		return putParticipant(txn, p)
	})
}

// DeleteIdle selects and removes, in one transaction, every participant the
// domain idle rule considers stale at `now`. The returned slice is exactly
// the set removed.
func (r ParticipantRepository) DeleteIdle(now time.Time, threshold time.Duration) ([]DiskParticipant, error) {
	var evicted []DiskParticipant
	err := r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)

		prefix := []byte(participantPrefix)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				p, err := DecodeParticipant(val)
				if err != nil {
					return err
				}
				stale := domain.Participant{Name: p.Name, LastSeen: p.LastSeen}
				if stale.IdleSince(now, threshold) {
					evicted = append(evicted, p)
					keys = append(keys, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

func putParticipant(txn *badger.Txn, p DiskParticipant) error {
	bytes, err := json.Marshal(storedParticipant{
		Name:     p.Name,
		LastSeen: p.LastSeen.UnixNano(),
	})
	if err != nil {
		return err
	}
	return txn.Set(participantKey(p.Name), bytes)
}

func getParticipant(txn *badger.Txn, name string) (DiskParticipant, error) {
	item, err := txn.Get(participantKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return DiskParticipant{}, chaterrors.ErrNotFound
	}
	if err != nil {
		return DiskParticipant{}, err
	}

	var p DiskParticipant
	err = item.Value(func(val []byte) error {
		decoded, err := DecodeParticipant(val)
		if err != nil {
			return err
		}
		p = decoded
		return nil
	})
	return p, err
}

// DecodeParticipant decodes a raw participant record as stored on disk.
func DecodeParticipant(val []byte) (DiskParticipant, error) {
	var stored storedParticipant
	if err := json.Unmarshal(val, &stored); err != nil {
		return DiskParticipant{}, fmt.Errorf("corrupt participant record: %w", err)
	}
	return DiskParticipant{
		Name:     stored.Name,
		LastSeen: time.Unix(0, stored.LastSeen).UTC(),
	}, nil
}
