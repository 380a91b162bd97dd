package crawlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
)

// fakeFetcher 按URL返回预置页面
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fail    map[string]int // 剩余失败次数, -1 表示总是失败
	refresh map[string]string
	calls   []string

	refreshes int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{
		pages:   pages,
		fail:    make(map[string]int),
		refresh: make(map[string]string),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if n, ok := f.fail[url]; ok && n != 0 {
		if n > 0 {
			f.fail[url] = n - 1
		}
		return nil, &FetchError{URL: url, Cause: fmt.Errorf("navigation timeout")}
	}
	markup, ok := f.pages[url]
	if !ok {
		return nil, &FetchError{URL: url, Cause: fmt.Errorf("HTTP 404")}
	}
	return &models.Page{RequestedURL: url, URL: url, Markup: markup, FetchedAt: time.Now()}, nil
}

func (f *fakeFetcher) Refresh(ctx context.Context, requested string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	markup, ok := f.refresh[requested]
	if !ok {
		markup = f.pages[requested]
	}
	return &models.Page{RequestedURL: requested, URL: requested, Markup: markup, FetchedAt: time.Now()}, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// recordingSleeper 记录等待时长,不真正等待
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// memorySitemap 内存中的站点地图
type memorySitemap struct {
	lines []string
}

func (m *memorySitemap) Record(u string) error {
	m.lines = append(m.lines, u)
	return nil
}

// imgExtractor 把每个 img[src] 变成一个任务
var imgExtractor = MediaExtractorFunc(func(page *models.Page) ([]models.Task, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Markup))
	if err != nil {
		return nil, &ExtractionError{URL: page.URL, Cause: err}
	}
	var tasks []models.Task
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		tasks = append(tasks, models.Task{MediaURL: src, Label: page.URL})
	})
	return tasks, nil
})

func doc(body string) string {
	return "<html><head><title>t</title></head><body>" + body + "</body></html>"
}
