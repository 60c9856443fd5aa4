package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "checkin", Body: []byte(`{"student_id":1}`)}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "checkin", msg.Type)
		assert.Equal(t, `{"student_id":1}`, string(msg.Body))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestSerializeKeepsPipesInBody(t *testing.T) {
	msg := Message{Type: "checkin", Body: []byte(`a|b|c`)}
	got := deserialize(serialize(msg))
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.Body, got.Body)
}

func TestDeserializeWithoutType(t *testing.T) {
	got := deserialize("just-a-body")
	assert.Empty(t, got.Type)
	assert.Equal(t, "just-a-body", string(got.Body))
}
