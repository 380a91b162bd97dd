package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSite 两个页面,一个404,一个站外链接
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			<img src="/a.jpg">
			<a href="/p1">p1</a>
			<a href="/missing">missing</a>
			<a href="https://other.org/x.html">other</a>
		</body></html>`)
	})
	mux.HandleFunc("/p1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>P1</title></head><body>
			<img src="/b.png"><a href="/">home</a>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Browser.Driver = "static"
	cfg.Crawl.AllowCrossDomain = false
	cfg.Crawl.PageDelay = 0
	cfg.Recovery.Cooldown = 0
	cfg.Recovery.Screenshot = false
	cfg.Recovery.Captcha = "auto"
	cfg.Pagination.RequestsPerMinute = 0
	cfg.Output.BaseDir = filepath.Join(dir, "output")
	cfg.Output.Progress = false
	cfg.Sitemap.Path = filepath.Join(dir, "sitemap.txt")
	return cfg
}

func newTestHeaders(t *testing.T) *HeaderManager {
	t.Helper()
	hm, err := NewHeaderManager(filepath.Join(t.TempDir(), "headers.yaml"), nil)
	require.NoError(t, err)
	return hm
}

func mediaURLs(tasks []models.Task) []string {
	urls := make([]string, 0, len(tasks))
	for _, task := range tasks {
		urls = append(urls, task.MediaURL)
	}
	return urls
}

func TestCrawler_DepthMode(t *testing.T) {
	srv := newTestSite(t)
	cfg := newTestConfig(t)

	c, err := NewCrawler(srv.URL+"/", cfg, models.ModeDepth, newTestHeaders(t))
	require.NoError(t, err)

	tasks, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{srv.URL + "/a.jpg", srv.URL + "/b.png"}, mediaURLs(tasks))
	assert.Equal(t, 1, c.GetStats().FetchFailures)
	assert.Equal(t, len(tasks), c.Report().Stats.TasksProduced)

	_, err = os.Stat(filepath.Join(c.GetOutputDir(), "reports", "tasks.json"))
	assert.NoError(t, err)
}

func TestCrawler_FullSiteMode(t *testing.T) {
	srv := newTestSite(t)
	cfg := newTestConfig(t)

	c, err := NewCrawler(srv.URL+"/", cfg, models.ModeFullSite, newTestHeaders(t))
	require.NoError(t, err)

	tasks, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{srv.URL + "/a.jpg", srv.URL + "/b.png"}, mediaURLs(tasks))

	report := c.Report()
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "fetch", report.Failures[0].ErrorType)
	assert.Equal(t, crawlers.DefaultMaxAttempts, report.Failures[0].Attempts)
	assert.Equal(t, 1, report.Stats.PagesAbandoned)
	assert.Equal(t, cfg.Sitemap.Path, report.SitemapPath)

	missing := srv.URL + "/missing"
	assert.Equal(t, []models.RecoveryEvent{
		{URL: missing, State: "cooling_down", Attempt: 1},
		{URL: missing, State: "cooling_down", Attempt: 2},
		{URL: missing, State: "abandoned", Attempt: 3},
	}, report.Recovery)

	data, err := os.ReadFile(cfg.Sitemap.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		assert.NotContains(t, line, "other.org")
	}

	_, err = os.Stat(filepath.Join(c.GetOutputDir(), "reports", "crawl_report.json"))
	assert.NoError(t, err)
}

func TestCrawler_InstagramMode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/alice/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"graphql":{"user":{"id":"42","edge_owner_to_timeline_media":{"count":1,
			"page_info":{"has_next_page":false,"end_cursor":""},
			"edges":[{"node":{"id":"1","shortcode":"AAA"}}]}}}}`)
	})
	mux.HandleFunc("/p/AAA/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"graphql":{"shortcode_media":{"__typename":"GraphImage","display_url":"https://cdn.example.com/a.jpg"}}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := newTestConfig(t)
	cfg.Pagination.BaseURL = srv.URL + "/"

	c, err := NewCrawler("https://www.instagram.com/@alice/", cfg, models.ModeInstagram, newTestHeaders(t))
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Label())

	tasks, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "https://cdn.example.com/a.jpg", tasks[0].MediaURL)
	assert.Equal(t, "alice", tasks[0].Label)
	assert.Empty(t, c.Report().Error)
}

func TestCrawler_UnknownDriver(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Browser.Driver = "netscape"

	c, err := NewCrawler("https://example.com/", cfg, models.ModeDepth, nil)
	require.NoError(t, err)

	_, err = c.Crawl(context.Background())
	assert.True(t, errors.Is(err, crawlers.ErrUnknownDriver))
}

func TestNewCrawler_InvalidSeed(t *testing.T) {
	_, err := NewCrawler("not a url", newTestConfig(t), models.ModeDepth, nil)
	assert.Error(t, err)

	_, err = NewCrawler("", newTestConfig(t), models.ModeInstagram, nil)
	assert.Error(t, err)
}

func TestInstagramUsername(t *testing.T) {
	tests := []struct {
		name string
		seed string
		want string
	}{
		{"纯用户名", "alice", "alice"},
		{"带@", "@alice", "alice"},
		{"主页URL", "https://www.instagram.com/alice/", "alice"},
		{"帖子路径", "https://www.instagram.com/alice/p/AAA/", "alice"},
		{"空白", "  bob  ", "bob"},
		{"空", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstagramUsername(tt.seed))
		})
	}
}

// captchaSession 每个URL第一次读取返回验证码页面
type captchaSession struct {
	pages   map[string]string
	reads   map[string]int
	current string
}

func (s *captchaSession) Navigate(ctx context.Context, url string) error {
	if _, ok := s.pages[url]; !ok {
		return errors.New("HTTP 404")
	}
	s.current = url
	return nil
}

func (s *captchaSession) Markup(ctx context.Context) (string, error) {
	s.reads[s.current]++
	if s.reads[s.current] == 1 {
		return "<html><body>Please solve the CAPTCHA</body></html>", nil
	}
	return s.pages[s.current], nil
}

func (s *captchaSession) CurrentURL(ctx context.Context) (string, error) { return s.current, nil }

func (s *captchaSession) RunScript(ctx context.Context, script string) (any, error) {
	return nil, crawlers.ErrUnsupported
}

func (s *captchaSession) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, crawlers.ErrUnsupported
}

func (s *captchaSession) Close() error { return nil }

func TestCrawler_FullSiteCaptchaPause(t *testing.T) {
	session := &captchaSession{
		pages: map[string]string{
			"https://example.com/": `<html><head><title>Home</title></head><body><img src="/a.jpg"></body></html>`,
		},
		reads: map[string]int{},
	}
	resolver := crawlers.NewChannelResolver()
	resolver.Confirm()

	cfg := newTestConfig(t)
	cfg.Browser.Driver = "chrome"
	c, err := NewCrawler("https://example.com/", cfg, models.ModeFullSite, nil,
		WithSessionFactory(func(kind models.DriverKind, opts crawlers.SessionOptions) (crawlers.BrowserSession, error) {
			assert.Equal(t, models.DriverChrome, kind)
			return session, nil
		}),
		WithCaptchaResolver(resolver),
	)
	require.NoError(t, err)

	tasks, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "https://example.com/a.jpg", tasks[0].MediaURL)
	assert.Equal(t, 1, c.GetStats().CaptchaPauses)
	assert.Empty(t, c.Report().Failures)
	assert.Equal(t, []models.RecoveryEvent{
		{URL: "https://example.com/", State: "awaiting_confirmation", Attempt: 1},
	}, c.Report().Recovery)
}
