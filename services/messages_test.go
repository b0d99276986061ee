package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain"
	chaterrors "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	registry *RegistryService
	messages *MessageService
	clock    *manualClock
	stats    *observability.RelayStats
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	db := openTestDB(t)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	index := repositories.NewSearchIndex(writer)
	t.Cleanup(func() { _ = index.Close() })

	log := slog.Default()
	clock := newManualClock()
	stats := observability.NewRelayStats()

	participantRepository := repositories.NewParticipantRepository(db, index, log)
	messageRepository := repositories.NewMessageRepository(db, index, log, 100)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	require.NoError(t, err)

	registry := NewRegistryService(participantRepository, clock, stats, log)
	messages := NewMessageService(messageRepository, registry, &moderator, clock, stats, log)
	return relayFixture{registry: registry, messages: messages, clock: clock, stats: stats}
}

func Test_Conversation_Round_Trip(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	f.clock.Advance(time.Second)
	req.NoError(f.registry.Register("Bob"))
	f.clock.Advance(time.Second)

	_, err := f.messages.Post("Alice", domain.Broadcast, "hi", domain.KindChat)
	req.NoError(err)

	// Bob sees both arrival notices then the chat line, oldest first
	window, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	req.Len(window, 3)
	req.Equal(domain.ArrivalText, window[0].Text)
	req.Equal("Alice", window[0].From)
	req.Equal(domain.ArrivalText, window[1].Text)
	req.Equal("Bob", window[1].From)
	req.Equal("hi", window[2].Text)
	req.Equal(domain.KindChat, window[2].Kind)
}

func Test_Post_Requires_Registration(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	_, err := f.messages.Post("Ghost", domain.Broadcast, "hello?", domain.KindChat)
	req.ErrorIs(err, chaterrors.ErrNotRegistered)

	// Nothing must have been stored
	window, err := f.messages.ListVisible("Ghost", 0)
	req.NoError(err)
	req.Empty(window)
}

func Test_Post_After_Eviction_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	f.clock.Advance(30 * time.Second)

	evicted, err := f.registry.EvictIdle(10 * time.Second)
	req.NoError(err)
	req.Len(evicted, 1)

	_, err = f.messages.Post("Alice", domain.Broadcast, "still here?", domain.KindChat)
	req.ErrorIs(err, chaterrors.ErrNotRegistered)
}

func Test_Private_Message_Confidentiality(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	req.NoError(f.registry.Register("Bob"))
	req.NoError(f.registry.Register("Clara"))
	f.clock.Advance(time.Second)

	secret, err := f.messages.Post("Alice", "Bob", "between us", domain.KindPrivate)
	req.NoError(err)

	hasSecret := func(window []domain.Message) bool {
		for _, msg := range window {
			if msg.ID == secret.ID {
				return true
			}
		}
		return false
	}

	forBob, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	req.True(hasSecret(forBob))

	forAlice, err := f.messages.ListVisible("Alice", 0)
	req.NoError(err)
	req.True(hasSecret(forAlice))

	forClara, err := f.messages.ListVisible("Clara", 0)
	req.NoError(err)
	req.False(hasSecret(forClara))
}

func Test_Post_Censors_Blacklisted_Words(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))

	msg, err := f.messages.Post("Alice", domain.Broadcast, "you badger", domain.KindChat)
	req.NoError(err)
	req.Equal("you ******", msg.Text)
	req.Equal(uint64(1), f.stats.Snapshot().Censored)
}

func Test_Post_Detects_Language(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))

	msg, err := f.messages.Post("Alice", domain.Broadcast, "the quick brown fox jumps over the lazy dog", domain.KindChat)
	req.NoError(err)
	req.Equal("en", msg.Lang)
}

func Test_Edit_Is_Author_Only(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	req.NoError(f.registry.Register("Bob"))

	msg, err := f.messages.Post("Alice", domain.Broadcast, "draft", domain.KindChat)
	req.NoError(err)

	err = f.messages.Edit(msg.ID, "Bob", domain.Broadcast, "hijacked", domain.KindChat)
	req.ErrorIs(err, chaterrors.ErrForbidden)

	req.NoError(f.messages.Edit(msg.ID, "Alice", "Bob", "now private", domain.KindPrivate))
	req.Equal(uint64(1), f.stats.Snapshot().Edited)

	forBob, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	last := forBob[len(forBob)-1]
	req.Equal("now private", last.Text)
	req.Equal(domain.KindPrivate, last.Kind)
	req.Equal("Alice", last.From)
}

func Test_Edit_Censors_The_New_Text(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))

	msg, err := f.messages.Post("Alice", domain.Broadcast, "clean", domain.KindChat)
	req.NoError(err)

	req.NoError(f.messages.Edit(msg.ID, "Alice", domain.Broadcast, "what a badger", domain.KindChat))

	window, err := f.messages.ListVisible("Alice", 0)
	req.NoError(err)
	req.Equal("what a ******", window[len(window)-1].Text)
}

func Test_Delete_Forbidden_Leaves_Message_Intact(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	req.NoError(f.registry.Register("Bob"))

	msg, err := f.messages.Post("Alice", domain.Broadcast, "keep me", domain.KindChat)
	req.NoError(err)

	err = f.messages.Delete(msg.ID, "Bob")
	req.ErrorIs(err, chaterrors.ErrForbidden)

	window, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	req.Equal("keep me", window[len(window)-1].Text)

	req.NoError(f.messages.Delete(msg.ID, "Alice"))
	req.Equal(uint64(1), f.stats.Snapshot().Deleted)

	window, err = f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	for _, m := range window {
		req.NotEqual(msg.ID, m.ID)
	}
}

func Test_Record_Departure_Skips_Membership_Check(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	// "Alice" is not registered anymore, the notice must land anyway
	notice, err := f.messages.RecordDeparture("Alice")
	req.NoError(err)
	req.Equal(domain.DepartureText, notice.Text)
	req.Equal(domain.KindStatus, notice.Kind)

	window, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	req.Len(window, 1)
	req.Equal(domain.DepartureText, window[0].Text)
}

func Test_Eviction_Leaves_A_Departure_Notice(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	req.NoError(f.registry.Register("Bob"))

	// Only Bob keeps signaling liveness
	f.clock.Advance(8 * time.Second)
	req.NoError(f.registry.Touch("Bob"))
	f.clock.Advance(8 * time.Second)

	evicted, err := f.registry.EvictIdle(10 * time.Second)
	req.NoError(err)
	req.Len(evicted, 1)
	req.Equal("Alice", evicted[0].Name)

	for _, p := range evicted {
		_, err := f.messages.RecordDeparture(p.Name)
		req.NoError(err)
	}

	participants, err := f.registry.List()
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal("Bob", participants[0].Name)

	window, err := f.messages.ListVisible("Bob", 0)
	req.NoError(err)
	last := window[len(window)-1]
	req.Equal(domain.DepartureText, last.Text)
	req.Equal("Alice", last.From)
	req.Equal(domain.Broadcast, last.To)
	req.Equal(domain.KindStatus, last.Kind)
}

func Test_Search_Through_Service(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))
	req.NoError(f.registry.Register("Bob"))
	f.clock.Advance(time.Second)

	_, err := f.messages.Post("Alice", domain.Broadcast, "the weather is lovely", domain.KindChat)
	req.NoError(err)
	f.clock.Advance(time.Second)
	_, err = f.messages.Post("Alice", "Bob", "lovely secret plan", domain.KindPrivate)
	req.NoError(err)

	forClara, err := f.messages.Search(context.Background(), "Clara", "lovely", 10)
	req.NoError(err)
	req.Len(forClara, 1)
	req.Equal("the weather is lovely", forClara[0].Text)

	forBob, err := f.messages.Search(context.Background(), "Bob", "lovely", 10)
	req.NoError(err)
	req.Len(forBob, 2)
}

func Test_Search_Finds_Arrival_Notices(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	req.NoError(f.registry.Register("Alice"))

	found, err := f.messages.Search(context.Background(), "Bob", "sala", 10)
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("Alice", found[0].From)
	req.Equal(domain.ArrivalText, found[0].Text)
	req.Equal(domain.KindStatus, found[0].Kind)
}
