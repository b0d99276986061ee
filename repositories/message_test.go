package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"chat-relay/domain"
	chaterrors "chat-relay/errors"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	index := NewSearchIndex(writer)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func newTestMessageRepository(t *testing.T, defaultLimit int) MessageRepository {
	t.Helper()
	return NewMessageRepository(openTestDB(t), newTestIndex(t), slog.Default(), defaultLimit)
}

func chatAt(from, to, text string, at time.Time) DiskMessage {
	return DiskMessage{
		ID:   uuid.New(),
		From: from,
		To:   to,
		Text: text,
		Kind: string(domain.KindChat),
		At:   at,
	}
}

func Test_Messages_Come_Back_In_Chronological_Order(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	first := chatAt("Alice", domain.Broadcast, "first", at)
	second := chatAt("Bob", domain.Broadcast, "second", at.Add(1*time.Minute))
	third := chatAt("Clara", domain.Broadcast, "third", at.Add(2*time.Minute))

	// Inserted out of order on purpose
	req.NoError(repository.Insert(third))
	req.NoError(repository.Insert(first))
	req.NoError(repository.Insert(second))

	fetched, err := repository.FindVisible("Alice", 0)
	req.NoError(err)
	req.Len(fetched, 3)
	req.Equal("first", fetched[0].Text)
	req.Equal("second", fetched[1].Text)
	req.Equal("third", fetched[2].Text)
}

func Test_Limit_Keeps_The_Most_Recent_Messages(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		msg := chatAt("Alice", domain.Broadcast, fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Insert(msg))
	}

	fetched, err := repository.FindVisible("Bob", 2)
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal("message 3", fetched[0].Text)
	req.Equal("message 4", fetched[1].Text)
}

func Test_Default_Limit_Applies_When_None_Given(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 3)

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		msg := chatAt("Alice", domain.Broadcast, fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Second))
		req.NoError(repository.Insert(msg))
	}

	fetched, err := repository.FindVisible("Bob", 0)
	req.NoError(err)
	req.Len(fetched, 3)
	req.Equal("message 2", fetched[0].Text)
}

func Test_Private_Messages_Stay_Between_Author_And_Recipient(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	broadcast := chatAt("Alice", domain.Broadcast, "hello everyone", at)
	secret := DiskMessage{
		ID:   uuid.New(),
		From: "Alice",
		To:   "Bob",
		Text: "just between us",
		Kind: string(domain.KindPrivate),
		At:   at.Add(time.Second),
	}
	req.NoError(repository.Insert(broadcast))
	req.NoError(repository.Insert(secret))

	forBob, err := repository.FindVisible("Bob", 0)
	req.NoError(err)
	req.Len(forBob, 2)

	forAlice, err := repository.FindVisible("Alice", 0)
	req.NoError(err)
	req.Len(forAlice, 2)

	forClara, err := repository.FindVisible("Clara", 0)
	req.NoError(err)
	req.Len(forClara, 1)
	req.Equal("hello everyone", forClara[0].Text)
}

func Test_Update_Is_Author_Only(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	msg := chatAt("Alice", domain.Broadcast, "draft", time.Now().UTC())
	req.NoError(repository.Insert(msg))

	err := repository.UpdateByID(msg.ID, "Bob", domain.Broadcast, "hijacked", string(domain.KindChat), "")
	req.ErrorIs(err, chaterrors.ErrForbidden)

	req.NoError(repository.UpdateByID(msg.ID, "Alice", "Bob", "final", string(domain.KindPrivate), "en"))

	updated, err := repository.FindByID(msg.ID)
	req.NoError(err)
	req.Equal("final", updated.Text)
	req.Equal("Bob", updated.To)
	req.Equal(string(domain.KindPrivate), updated.Kind)
	// Identity and chronology never change on edit
	req.Equal("Alice", updated.From)
	req.Equal(msg.At.UnixNano(), updated.At.UnixNano())
}

func Test_Update_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	err := repository.UpdateByID(uuid.New(), "Alice", domain.Broadcast, "text", string(domain.KindChat), "")
	req.ErrorIs(err, chaterrors.ErrNotFound)
}

func Test_Status_Notices_Are_Immutable(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	notice := DiskMessage{
		ID:   uuid.New(),
		From: "Alice",
		To:   domain.Broadcast,
		Text: domain.ArrivalText,
		Kind: string(domain.KindStatus),
		At:   time.Now().UTC(),
	}
	req.NoError(repository.Insert(notice))

	err := repository.UpdateByID(notice.ID, "Alice", domain.Broadcast, "rewritten", string(domain.KindChat), "")
	req.ErrorIs(err, chaterrors.ErrForbidden)

	err = repository.DeleteByID(notice.ID, "Alice")
	req.ErrorIs(err, chaterrors.ErrForbidden)
}

func Test_Delete_Is_Author_Only_And_Permanent(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	msg := chatAt("Alice", domain.Broadcast, "soon gone", time.Now().UTC())
	req.NoError(repository.Insert(msg))

	err := repository.DeleteByID(msg.ID, "Bob")
	req.ErrorIs(err, chaterrors.ErrForbidden)

	// A failed delete leaves the message untouched
	kept, err := repository.FindByID(msg.ID)
	req.NoError(err)
	req.Equal("soon gone", kept.Text)

	req.NoError(repository.DeleteByID(msg.ID, "Alice"))

	_, err = repository.FindByID(msg.ID)
	req.ErrorIs(err, chaterrors.ErrNotFound)

	fetched, err := repository.FindVisible("Alice", 0)
	req.NoError(err)
	req.Empty(fetched)
}

func Test_InsertMany_Lands_As_One_Batch(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	batch := []DiskMessage{
		chatAt("Alice", domain.Broadcast, "one", at),
		chatAt("Bob", domain.Broadcast, "two", at.Add(time.Second)),
	}
	req.NoError(repository.InsertMany(batch))

	fetched, err := repository.FindVisible("Clara", 0)
	req.NoError(err)
	req.Len(fetched, 2)
}

func Test_Search_Respects_Visibility(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	public := chatAt("Alice", domain.Broadcast, "the weather is lovely today", at)
	secret := DiskMessage{
		ID:   uuid.New(),
		From: "Alice",
		To:   "Bob",
		Text: "lovely plan, keep it secret",
		Kind: string(domain.KindPrivate),
		At:   at.Add(time.Second),
	}
	unrelated := chatAt("Bob", domain.Broadcast, "totally different topic", at.Add(2*time.Second))

	req.NoError(repository.Insert(public))
	req.NoError(repository.Insert(secret))
	req.NoError(repository.Insert(unrelated))

	ctx := context.Background()

	forBob, err := repository.SearchVisible(ctx, "lovely", "Bob", 10)
	req.NoError(err)
	req.Len(forBob, 2)
	// Newest first
	req.Equal(secret.ID, forBob[0].ID)
	req.Equal(public.ID, forBob[1].ID)

	forClara, err := repository.SearchVisible(ctx, "lovely", "Clara", 10)
	req.NoError(err)
	req.Len(forClara, 1)
	req.Equal(public.ID, forClara[0].ID)

	none, err := repository.SearchVisible(ctx, "nonexistent", "Bob", 10)
	req.NoError(err)
	req.Empty(none)
}

func Test_Search_Survives_An_Oversized_Limit(t *testing.T) {
	req := require.New(t)
	repository := newTestMessageRepository(t, 100)

	at := time.Now().UTC()
	req.NoError(repository.Insert(chatAt("Alice", domain.Broadcast, "the weather is lovely today", at)))
	req.NoError(repository.Insert(chatAt("Bob", domain.Broadcast, "lovely indeed", at.Add(time.Second))))

	found, err := repository.SearchVisible(context.Background(), "lovely", "Clara", math.MaxInt)
	req.NoError(err)
	req.Len(found, 2)
}
