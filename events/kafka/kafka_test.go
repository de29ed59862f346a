package kafka

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/events"
)

func TestConfig(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), ErrEmptyBrokers)
	assert.False(t, Config{}.Enabled())

	cfg := Config{Brokers: []string{"localhost:9092"}}.withDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "shopctl.events", cfg.Topic)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestToMessage(t *testing.T) {
	e := events.New(events.SessionLogin, "an@example.com", map[string]any{"userId": 7})
	m, err := toMessage(e)
	require.NoError(t, err)

	assert.Equal(t, "an@example.com", string(m.Key))
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "session.login", string(m.Headers[0].Value))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)

	m, err = toMessage(events.New(events.CartCleared, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "cart.cleared", string(m.Key))
}

func TestClosedPublisher(t *testing.T) {
	p, err := New(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), events.New(events.CartUpdated, "", nil)), ErrClosed)
}

func TestPublishLive(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}

	p, err := New(Config{Brokers: strings.Split(brokers, ","), AllowAutoTopicCreation: true})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, p.Publish(ctx, events.New(events.SessionLogin, "an@example.com", nil)))
}
