package gateway

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		var cursor Cursor
		_, ok := cursor.Value()
		assert.False(t, ok)
	})

	t.Run("zero is a valid sequence number", func(t *testing.T) {
		var cursor Cursor
		cursor.Observe(0)
		seq, ok := cursor.Value()
		assert.True(t, ok)
		assert.Equal(t, int64(0), seq)
	})

	t.Run("concurrent observers keep the maximum", func(t *testing.T) {
		var cursor Cursor
		var wg sync.WaitGroup
		for i := int64(1); i <= 100; i++ {
			wg.Add(1)
			go func(seq int64) {
				defer wg.Done()
				cursor.Observe(seq)
			}(i)
		}
		wg.Wait()

		seq, _ := cursor.Value()
		assert.Equal(t, int64(100), seq)
	})

	t.Run("reset", func(t *testing.T) {
		var cursor Cursor
		cursor.Observe(9)
		cursor.Reset()
		_, ok := cursor.Value()
		assert.False(t, ok)
	})
}
