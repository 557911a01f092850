package staleness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.IsStale("b.js"))

	tr.MarkStale("b.js")
	tr.MarkStale("a.js")
	assert.True(t, tr.IsStale("b.js"))
	assert.False(t, tr.IsStale("c.js"))
	assert.Equal(t, []string{"a.js", "b.js"}, tr.Files())

	tr.Clear("b.js")
	assert.False(t, tr.IsStale("b.js"))
	assert.True(t, tr.IsStale("a.js"))

	tr.Reset()
	assert.False(t, tr.IsStale("a.js"))
	assert.Empty(t, tr.Files())
}
