package randx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := SessionID()
		require.True(t, IsValidSessionID(id), "invalid id %q", id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestIsValidSessionID(t *testing.T) {
	assert.False(t, IsValidSessionID(""))
	assert.False(t, IsValidSessionID("sess_"))
	assert.False(t, IsValidSessionID("sess_zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
	assert.False(t, IsValidSessionID(uuid.New().String()))
}

func TestMessageID(t *testing.T) {
	_, err := uuid.Parse(MessageID())
	assert.NoError(t, err)
	assert.NotEqual(t, MessageID(), MessageID())
}
