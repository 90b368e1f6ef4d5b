package gateway

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingResponder struct {
	mu      sync.Mutex
	replies []string
	origins []*Operation
}

func (r *recordingResponder) RespondWith(text string, original *Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	r.origins = append(r.origins, original)
}

func TestMessageFromOperation(t *testing.T) {
	t.Run("extracts author and content", func(t *testing.T) {
		op, err := Parse([]byte(`{"op": 0, "s": 2, "t": "MESSAGE_CREATE", "d": {
			"id": "900", "channel_id": "7", "content": "!points",
			"author": {"id": "42", "username": "ada"}
		}}`), nil)
		require.NoError(t, err)

		responder := &recordingResponder{}
		msg, ok := MessageFromOperation(op, responder)
		require.True(t, ok)

		assert.Equal(t, "900", msg.ID)
		assert.Equal(t, User{ID: "42", Name: "ada"}, msg.Author)
		assert.Equal(t, "ada", msg.Author.Mention())
		assert.Equal(t, "!points", msg.Content)
		assert.Same(t, op, msg.Operation)

		msg.Respond("hi")
		assert.Equal(t, []string{"hi"}, responder.replies)
		assert.Same(t, op, responder.origins[0])
	})

	t.Run("no author", func(t *testing.T) {
		op, err := Parse([]byte(`{"op": 0, "s": 2, "t": "MESSAGE_CREATE", "d": {"content": "!points"}}`), nil)
		require.NoError(t, err)

		_, ok := MessageFromOperation(op, nil)
		assert.False(t, ok)
	})

	t.Run("respond without responder is a no-op", func(t *testing.T) {
		msg := NewMessage("1", User{ID: "2"}, "x", nil, nil)
		assert.NotPanics(t, func() { msg.Respond("ignored") })
	})
}

func TestDeepCopy(t *testing.T) {
	original := map[string]any{
		"list":   []any{map[string]any{"a": "b"}},
		"nested": map[string]any{"x": "y"},
	}

	copied := DeepCopyMap(original)
	copied["nested"].(map[string]any)["x"] = "z"
	copied["list"].([]any)[0].(map[string]any)["a"] = "c"

	assert.Equal(t, "y", original["nested"].(map[string]any)["x"])
	assert.Equal(t, "b", original["list"].([]any)[0].(map[string]any)["a"])
	assert.Equal(t, map[string]any{}, DeepCopyMap(nil))
}
