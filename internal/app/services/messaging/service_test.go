package messaging_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagya80/SarvTribe/internal/app/services/messaging"
	"github.com/sarvagya80/SarvTribe/internal/app/stream"
	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
	"github.com/sarvagya80/SarvTribe/internal/infra/storage/memory"
)

type fakeUploader struct {
	keys []string
	fail bool
}

func (u *fakeUploader) Upload(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	if u.fail {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "https://media.test/" + key, nil
}

type dispatched struct {
	userID  string
	event   string
	payload any
}

type fakeDispatcher struct {
	calls []dispatched
}

func (d *fakeDispatcher) Dispatch(userID, event string, payload any) {
	d.calls = append(d.calls, dispatched{userID: userID, event: event, payload: payload})
}

type fixture struct {
	service    *messaging.Service
	messages   *memory.MessageRepository
	users      *memory.UserRepository
	uploader   *fakeUploader
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		messages:   memory.NewMessageRepository(),
		users:      memory.NewUserRepository(),
		uploader:   &fakeUploader{},
		dispatcher: &fakeDispatcher{},
	}
	f.service = &messaging.Service{
		Messages:   f.messages,
		Users:      f.users,
		Uploader:   f.uploader,
		Dispatcher: f.dispatcher,
	}
	return f
}

func (f *fixture) addUser(t *testing.T, id, fullName string) {
	t.Helper()
	u, err := domainuser.New(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Email:        id + "@example.com",
		FullName:     fullName,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
}

// seed stores a message directly with a controlled timestamp.
func (f *fixture) seed(t *testing.T, id, from, to, text string, at time.Time) {
	t.Helper()
	msg, err := domainmessage.New(domainmessage.CreateParams{
		ID:         id,
		FromUserID: domainuser.ID(from),
		ToUserID:   domainuser.ID(to),
		Text:       text,
		Kind:       domainmessage.KindText,
		CreatedAt:  at,
	})
	require.NoError(t, err)
	require.NoError(t, f.messages.Save(context.Background(), msg))
}

func TestSendText(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice A")
	f.addUser(t, "bob", "Bob B")

	msg, err := f.service.Send(context.Background(), messaging.SendParams{
		FromUserID: "alice",
		ToUserID:   "bob",
		Text:       "  hello bob  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello bob", msg.Text)
	assert.Equal(t, string(domainmessage.KindText), msg.MessageType)
	assert.Equal(t, "alice", msg.FromUser.ID)
	assert.Equal(t, "Alice A", msg.FromUser.FullName)
	assert.Equal(t, "bob", msg.ToUser.ID)
	assert.False(t, msg.Seen)
	assert.Empty(t, msg.MediaURL)

	stored, err := f.messages.Between(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hello bob", stored[0].Text)

	require.Len(t, f.dispatcher.calls, 1)
	call := f.dispatcher.calls[0]
	assert.Equal(t, "bob", call.userID)
	assert.Equal(t, stream.EventNewMessage, call.event)
	assert.Equal(t, msg, call.payload)
}

func TestSendImage(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice A")
	f.addUser(t, "bob", "Bob B")

	msg, err := f.service.Send(context.Background(), messaging.SendParams{
		FromUserID: "alice",
		ToUserID:   "bob",
		Media: &messaging.MediaFile{
			Name:        "cat.png",
			ContentType: "image/png",
			Data:        []byte{0x89, 0x50, 0x4e, 0x47},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, string(domainmessage.KindImage), msg.MessageType)
	assert.Empty(t, msg.Text)
	require.Len(t, f.uploader.keys, 1)
	assert.Contains(t, f.uploader.keys[0], "messages/message_alice_")
	assert.Contains(t, f.uploader.keys[0], ".png")
	assert.Equal(t, "https://media.test/"+f.uploader.keys[0], msg.MediaURL)
}

func TestSendValidation(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Send(context.Background(), messaging.SendParams{
			FromUserID: "alice",
			ToUserID:   "bob",
			Text:       "   ",
		})
		assert.ErrorIs(t, err, messaging.ErrEmptyMessage)

		stored, berr := f.messages.Between(context.Background(), "alice", "bob")
		require.NoError(t, berr)
		assert.Empty(t, stored)
		assert.Empty(t, f.dispatcher.calls)
	})

	t.Run("missing recipient", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Send(context.Background(), messaging.SendParams{
			FromUserID: "alice",
			Text:       "hello",
		})
		assert.ErrorIs(t, err, messaging.ErrRecipientRequired)
	})
}

func TestSendUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.fail = true

	_, err := f.service.Send(context.Background(), messaging.SendParams{
		FromUserID: "alice",
		ToUserID:   "bob",
		Media:      &messaging.MediaFile{Name: "cat.png", ContentType: "image/png", Data: []byte{1}},
	})
	require.ErrorIs(t, err, messaging.ErrUploadFailed)

	// Nothing may be persisted or pushed when the upload fails.
	stored, berr := f.messages.Between(context.Background(), "alice", "bob")
	require.NoError(t, berr)
	assert.Empty(t, stored)
	assert.Empty(t, f.dispatcher.calls)
}

func TestSendSurvivesParticipantLookupFailure(t *testing.T) {
	f := newFixture(t)
	// No users registered at all: display fields degrade to bare ids.
	msg, err := f.service.Send(context.Background(), messaging.SendParams{
		FromUserID: "alice",
		ToUserID:   "bob",
		Text:       "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.FromUser.ID)
	assert.Empty(t, msg.FromUser.FullName)
}

func TestChatHistory(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice A")
	f.addUser(t, "bob", "Bob B")
	f.addUser(t, "carol", "Carol C")
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.seed(t, "m1", "alice", "bob", "first", base)
	f.seed(t, "m2", "bob", "alice", "second", base.Add(time.Minute))
	f.seed(t, "m3", "alice", "bob", "third", base.Add(2*time.Minute))
	f.seed(t, "m4", "carol", "alice", "unrelated", base.Add(3*time.Minute))

	history, err := f.service.ChatHistory(context.Background(), "alice", "bob")
	require.NoError(t, err)

	require.Len(t, history, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{history[0].Text, history[1].Text, history[2].Text})

	// Fetching the chat marks bob's messages as seen, and only bob's.
	assert.False(t, history[0].Seen)
	assert.True(t, history[1].Seen)
	assert.False(t, history[2].Seen)

	stored, err := f.messages.Between(context.Background(), "alice", "bob")
	require.NoError(t, err)
	for _, msg := range stored {
		if msg.FromUserID == "bob" {
			assert.True(t, msg.Seen, "message %s", msg.ID)
		} else {
			assert.False(t, msg.Seen, "message %s", msg.ID)
		}
	}
}

func TestConversations(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "alice", "Alice A")
	f.addUser(t, "bob", "Bob B")
	f.addUser(t, "carol", "Carol C")
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.seed(t, "m1", "alice", "bob", "bob old", base)
	f.seed(t, "m2", "bob", "alice", "bob latest", base.Add(time.Minute))
	f.seed(t, "m3", "carol", "alice", "carol latest", base.Add(2*time.Minute))

	convs, err := f.service.Conversations(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, convs, 2)
	assert.Equal(t, "carol latest", convs[0].Text)
	assert.Equal(t, "bob latest", convs[1].Text)
	assert.Equal(t, "Carol C", convs[0].FromUser.FullName)
}

func TestConversationsTieBreakIsDeterministic(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.seed(t, fmt.Sprintf("m%d", i), "alice", fmt.Sprintf("peer%d", i), "hi", at)
	}

	first, err := f.service.Conversations(context.Background(), "alice")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.service.Conversations(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
