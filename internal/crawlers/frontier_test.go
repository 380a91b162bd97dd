package crawlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_FIFO(t *testing.T) {
	f := NewFrontier(NewVisitedSet())
	require.NoError(t, f.Push("https://example.com/1"))
	require.NoError(t, f.Push("https://example.com/2"))
	require.NoError(t, f.Push("https://example.com/3"))
	assert.Equal(t, 3, f.Len())

	for _, want := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		got, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := f.Pop()
	assert.False(t, ok)
}

func TestFrontier_Push(t *testing.T) {
	visited := NewVisitedSet()
	visited.Visit("https://example.com/seen")
	f := NewFrontier(visited)
	require.NoError(t, f.Push("https://example.com/queued"))

	tests := []struct {
		name string
		url  string
	}{
		{"已访问", "http://example.com/seen/"},
		{"已在队列中", "https://EXAMPLE.com/queued?x=1"},
		{"不支持的协议", "ftp://example.com/file"},
		{"mailto", "mailto:a@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, f.Push(tt.url))
		})
	}
	assert.Equal(t, 1, f.Len())
}

func TestFrontier_PopAllowsRequeue(t *testing.T) {
	f := NewFrontier(NewVisitedSet())
	require.NoError(t, f.Push("https://example.com/a"))
	_, _ = f.Pop()
	// 出队后未标记已访问,可以再次入队
	assert.NoError(t, f.Push("https://example.com/a"))
}
