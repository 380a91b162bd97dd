package crawlers

import (
	"testing"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkExtractor_DepthRules(t *testing.T) {
	page := &models.Page{
		URL: "https://example.com/dir/page",
		Markup: doc(`
			<a href="/abs">abs</a>
			<a href="http://other.org/x">other</a>
			<a href="relative">relative</a>
			<a href="#top">anchor</a>
			<a href="mailto:a@b.c">mail</a>
			<a href="/abs/">dup</a>
			<a>no href</a>`),
	}

	links, err := NewDepthLinkExtractor("").Extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/abs", "http://other.org/x"}, links)
}

func TestLinkExtractor_DepthRulesSameHost(t *testing.T) {
	page := &models.Page{
		URL:    "https://example.com/",
		Markup: doc(`<a href="/a">a</a><a href="https://other.org/b">b</a>`),
	}

	links, err := NewDepthLinkExtractor("example.com").Extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a"}, links)
}

func TestLinkExtractor_SiteRules(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected []string
	}{
		{"相对路径相对当前页解析", "child", []string{"https://example.com/dir/child"}},
		{"绝对路径", "/top", []string{"https://example.com/top"}},
		{"同主机绝对URL", "https://example.com/x", []string{"https://example.com/x"}},
		{"主机名大小写不敏感", "https://EXAMPLE.com/x", []string{"https://EXAMPLE.com/x"}},
		{"跨域链接被过滤", "https://other.org/x", nil},
		{"锚点被过滤", "#section", nil},
		{"javascript链接被过滤", "javascript:void(0)", nil},
		{"大写JavaScript也被过滤", "JavaScript:alert(1)", nil},
		{"mailto被过滤", "mailto:a@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &models.Page{
				URL:    "https://example.com/dir/page",
				Markup: doc(`<a href="` + tt.href + `">x</a>`),
			}
			links, err := NewSiteLinkExtractor("example.com").Extract(page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, links)
		})
	}
}

func TestLinkExtractor_ResolvesAgainstFinalURL(t *testing.T) {
	page := &models.Page{
		RequestedURL: "https://example.com/old/",
		URL:          "https://example.com/new/",
		Markup:       doc(`<a href="item">item</a>`),
	}

	links, err := NewSiteLinkExtractor("example.com").Extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/new/item"}, links)
}
