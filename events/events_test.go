package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New(SessionLogin, "an@example.com", map[string]any{"userId": 7})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, SessionLogin, e.Type)
	assert.False(t, e.At.IsZero())
	assert.NotEqual(t, e.ID, New(SessionLogin, "", nil).ID)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(CartUpdated, "", nil), New(CartCleared, "", nil)))
	assert.Equal(t, []Type{CartUpdated, CartCleared}, r.Types())
	assert.Len(t, r.Events(), 2)

	assert.NoError(t, Nop{}.Publish(context.Background(), New(CartUpdated, "", nil)))
}
