package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagya80/SarvTribe/internal/domain/message"
)

func TestNewValidation(t *testing.T) {
	valid := message.CreateParams{
		ID:         "m1",
		FromUserID: "alice",
		ToUserID:   "bob",
		Text:       "hi",
		Kind:       message.KindText,
	}

	t.Run("text message", func(t *testing.T) {
		msg, err := message.New(valid)
		require.NoError(t, err)
		assert.False(t, msg.Seen)
		assert.False(t, msg.CreatedAt.IsZero())
	})

	t.Run("text kind requires text", func(t *testing.T) {
		params := valid
		params.Text = ""
		params.MediaURL = "https://media.test/x.png"
		_, err := message.New(params)
		assert.ErrorIs(t, err, message.ErrTextRequired)
	})

	t.Run("image kind requires media url", func(t *testing.T) {
		params := valid
		params.Kind = message.KindImage
		_, err := message.New(params)
		assert.ErrorIs(t, err, message.ErrMediaURLRequired)
	})

	t.Run("empty body", func(t *testing.T) {
		params := valid
		params.Text = "   "
		_, err := message.New(params)
		assert.ErrorIs(t, err, message.ErrEmptyBody)
	})

	t.Run("unknown kind", func(t *testing.T) {
		params := valid
		params.Kind = message.Kind("video")
		_, err := message.New(params)
		assert.ErrorIs(t, err, message.ErrInvalidKind)
	})

	t.Run("participants required", func(t *testing.T) {
		params := valid
		params.FromUserID = " "
		_, err := message.New(params)
		assert.ErrorIs(t, err, message.ErrSenderRequired)

		params = valid
		params.ToUserID = ""
		_, err = message.New(params)
		assert.ErrorIs(t, err, message.ErrRecipientRequired)
	})
}

func TestCounterpart(t *testing.T) {
	msg, err := message.New(message.CreateParams{
		ID:         "m1",
		FromUserID: "alice",
		ToUserID:   "bob",
		Text:       "hi",
		Kind:       message.KindText,
	})
	require.NoError(t, err)

	assert.EqualValues(t, "bob", msg.Counterpart("alice"))
	assert.EqualValues(t, "alice", msg.Counterpart("bob"))
	// A non-participant sees the sender side.
	assert.EqualValues(t, "alice", msg.Counterpart("carol"))
}
