package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"chat-relay/domain"
	chaterrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagePrefix = "msg:"
	messageIDIdx  = "msgid:"

	// searchFetchCap bounds how many index hits a single search pulls from
	// the store, whatever window the caller asked for.
	searchFetchCap = 400
)

// broadcastTarget mirrors the domain constant so visibility filtering and the
// notices written through this package agree on the reserved recipient.
const broadcastTarget = domain.Broadcast

type IMessageRepository interface {
	Insert(m DiskMessage) error
	InsertMany(ms []DiskMessage) error
	FindByID(id uuid.UUID) (DiskMessage, error)
	FindVisible(viewer string, limit int) ([]DiskMessage, error)
	UpdateByID(id uuid.UUID, byName, to, text string, kind, lang string) error
	DeleteByID(id uuid.UUID, byName string) error
	SearchVisible(ctx context.Context, terms, viewer string, limit int) ([]DiskMessage, error)
}

type MessageRepository struct {
	db           *badger.DB
	index        *SearchIndex
	log          *slog.Logger
	defaultLimit int
}

func NewMessageRepository(db *badger.DB, index *SearchIndex, log *slog.Logger, defaultLimit int) MessageRepository {
	return MessageRepository{db: db, index: index, log: log, defaultLimit: defaultLimit}
}

// DiskMessage is the storage-layer representation of a relay message.
type DiskMessage struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	Kind string
	Lang string
	At   time.Time
}

type storedMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"kind"`
	Lang string `json:"lang,omitempty"`
	At   int64  `json:"at"` // unix nanoseconds
}

// messageKey formats the primary key as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order is creation order).
//  2. Prevent collisions with the UUID as tiebreak if two messages arrive
//     at the same nanosecond.
func messageKey(at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, at.UnixNano(), id))
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte(messageIDIdx + id.String())
}

// Insert persists a message and indexes its text for search.
func (m MessageRepository) Insert(msg DiskMessage) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return putMessage(txn, msg)
	})
	if err != nil {
		return err
	}
	indexBestEffort(m.index, m.log, msg)
	return nil
}

// InsertMany persists a batch in a single transaction. Used by the reaper
// path where several departure notices land at once.
func (m MessageRepository) InsertMany(msgs []DiskMessage) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		for _, msg := range msgs {
			if err := putMessage(txn, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		indexBestEffort(m.index, m.log, msg)
	}
	return nil
}

func (m MessageRepository) FindByID(id uuid.UUID) (DiskMessage, error) {
	var msg DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		found, _, err := getMessageByID(txn, id)
		if err != nil {
			return err
		}
		msg = found
		return nil
	})
	return msg, err
}

// FindVisible returns the most recent `limit` messages the viewer may read,
// re-ordered chronologically ascending for display. A non-positive limit
// falls back to the configured default.
//
// The scan walks the log backwards (newest first) and stops as soon as the
// window is full, so old history does not slow the hot path down.
func (m MessageRepository) FindVisible(viewer string, limit int) ([]DiskMessage, error) {
	if limit <= 0 {
		limit = m.defaultLimit
	}

	var window []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(messagePrefix)
		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append([]byte(messagePrefix), []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(window) == limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				msg, err := DecodeMessage(val)
				if err != nil {
					return err
				}
				if visibleTo(msg, viewer) {
					window = append(window, msg)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(window), nil
}

// UpdateByID replaces To, Text, Kind and Lang of an existing message, leaving
// ID, From and At untouched. The existence and ownership checks run inside
// the same transaction as the write: there is no window across which the
// record could be deleted or reassigned. Returns ErrNotFound for unknown ids
// and ErrForbidden when byName is not the original author.
func (m MessageRepository) UpdateByID(id uuid.UUID, byName, to, text string, kind, lang string) error {
	var updated DiskMessage
	err := m.db.Update(func(txn *badger.Txn) error {
		msg, primaryKey, err := getMessageByID(txn, id)
		if err != nil {
			return err
		}
		// System notices have no author session and are never mutable.
		if msg.Kind == string(domain.KindStatus) {
			return chaterrors.ErrForbidden
		}
		if msg.From != byName {
			return chaterrors.ErrForbidden
		}

		msg.To = to
		msg.Text = text
		msg.Kind = kind
		msg.Lang = lang
		updated = msg

		bytes, err := encodeMessage(msg)
		if err != nil {
			return err
		}
		return txn.Set(primaryKey, bytes)
	})
	if err != nil {
		return err
	}
	indexBestEffort(m.index, m.log, updated)
	return nil
}

// DeleteByID permanently removes a message after the same existence and
// ownership checks as UpdateByID, in the same critical section.
func (m MessageRepository) DeleteByID(id uuid.UUID, byName string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		msg, primaryKey, err := getMessageByID(txn, id)
		if err != nil {
			return err
		}
		if msg.Kind == string(domain.KindStatus) {
			return chaterrors.ErrForbidden
		}
		if msg.From != byName {
			return chaterrors.ErrForbidden
		}
		if err := txn.Delete(primaryKey); err != nil {
			return err
		}
		return txn.Delete(messageIDKey(id))
	})
	if err != nil {
		return err
	}
	if err := m.index.Remove(id); err != nil {
		m.log.Warn("Failed to remove message from search index", "id", id, "error", err)
	}
	return nil
}

// SearchVisible runs a full-text query against the index and keeps only the
// hits the viewer is allowed to read, newest first. Hits whose backing record
// has been deleted since indexing are skipped.
func (m MessageRepository) SearchVisible(ctx context.Context, terms, viewer string, limit int) ([]DiskMessage, error) {
	if limit <= 0 {
		limit = m.defaultLimit
	}

	// Over-fetch so visibility filtering can still fill the window. The cap
	// keeps an absurd caller-supplied limit from overflowing the fetch size.
	fetch := searchFetchCap
	if limit < searchFetchCap/4 {
		fetch = limit * 4
	}
	ids, err := m.index.Search(ctx, terms, fetch)
	if err != nil {
		return nil, err
	}

	var matches []DiskMessage
	err = m.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			if len(matches) == limit {
				break
			}
			msg, _, err := getMessageByID(txn, id)
			if errors.Is(err, chaterrors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if visibleTo(msg, viewer) {
				matches = append(matches, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Index relevance order is replaced by recency, which is what a chat
	// client actually renders.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].At.After(matches[j].At)
	})
	return matches, nil
}

// indexBestEffort is shared with ParticipantRepository so arrival notices get
// indexed the same way every other stored message does.
func indexBestEffort(index *SearchIndex, log *slog.Logger, msg DiskMessage) {
	if err := index.Index(msg); err != nil {
		// The log remains the source of truth; a stale index entry only
		// degrades search results.
		log.Warn("Failed to index message", "id", msg.ID, "error", err)
	}
}

func visibleTo(m DiskMessage, viewer string) bool {
	return m.To == broadcastTarget || m.To == viewer || m.From == viewer
}

// putMessage writes both the primary record and the id index entry. It is
// shared with ParticipantRepository.Insert so registration and its arrival
// notice commit as one unit.
func putMessage(txn *badger.Txn, msg DiskMessage) error {
	bytes, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	primaryKey := messageKey(msg.At, msg.ID)
	if err := txn.Set(primaryKey, bytes); err != nil {
		return err
	}
	return txn.Set(messageIDKey(msg.ID), primaryKey)
}

// getMessageByID resolves the id index to the primary record, returning the
// primary key so callers can rewrite or delete it in the same transaction.
func getMessageByID(txn *badger.Txn, id uuid.UUID) (DiskMessage, []byte, error) {
	item, err := txn.Get(messageIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return DiskMessage{}, nil, chaterrors.ErrNotFound
	}
	if err != nil {
		return DiskMessage{}, nil, err
	}

	primaryKey, err := item.ValueCopy(nil)
	if err != nil {
		return DiskMessage{}, nil, err
	}

	record, err := txn.Get(primaryKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return DiskMessage{}, nil, chaterrors.ErrNotFound
	}
	if err != nil {
		return DiskMessage{}, nil, err
	}

	var msg DiskMessage
	err = record.Value(func(val []byte) error {
		decoded, err := DecodeMessage(val)
		if err != nil {
			return err
		}
		msg = decoded
		return nil
	})
	return msg, primaryKey, err
}

func encodeMessage(msg DiskMessage) ([]byte, error) {
	return json.Marshal(storedMessage{
		ID:   msg.ID.String(),
		From: msg.From,
		To:   msg.To,
		Text: msg.Text,
		Kind: msg.Kind,
		Lang: msg.Lang,
		At:   msg.At.UnixNano(),
	})
}

// DecodeMessage decodes a raw message record as stored on disk.
func DecodeMessage(val []byte) (DiskMessage, error) {
	var stored storedMessage
	if err := json.Unmarshal(val, &stored); err != nil {
		return DiskMessage{}, fmt.Errorf("corrupt message record: %w", err)
	}
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return DiskMessage{}, fmt.Errorf("corrupt message id: %w", err)
	}
	return DiskMessage{
		ID:   id,
		From: stored.From,
		To:   stored.To,
		Text: stored.Text,
		Kind: stored.Kind,
		Lang: stored.Lang,
		At:   time.Unix(0, stored.At).UTC(),
	}, nil
}
