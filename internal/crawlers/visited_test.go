package crawlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"http统一为https", "http://example.com/a", "https://example.com/a"},
		{"主机名小写", "https://EXAMPLE.com/Path", "https://example.com/Path"},
		{"去掉末尾斜杠", "https://example.com/a/", "https://example.com/a"},
		{"根路径", "https://example.com/", "https://example.com"},
		{"丢弃查询和片段", "https://example.com/a?x=1#top", "https://example.com/a"},
		{"保留端口", "http://example.com:8080/a", "https://example.com:8080/a"},
		{"无主机原样返回", "not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(tt.input))
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"http://Example.com/a/b/",
		"https://example.com",
		"https://example.com/a?q=1",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		assert.Equal(t, once, NormalizeURL(once), in)
	}
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet()

	t.Run("首次访问返回true", func(t *testing.T) {
		assert.True(t, v.Visit("http://example.com/a/"))
		assert.True(t, v.Visit("https://example.com/b"))
	})

	t.Run("规范形式相同视为已访问", func(t *testing.T) {
		assert.False(t, v.Visit("https://EXAMPLE.com/a"))
		assert.False(t, v.Visit("https://example.com/a?page=2"))
		assert.True(t, v.Contains("http://example.com/a"))
		assert.False(t, v.Contains("https://example.com/c"))
	})

	t.Run("按访问顺序返回", func(t *testing.T) {
		require.Equal(t, 2, v.Len())
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, v.URLs())
	})
}
