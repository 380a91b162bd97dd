package crawlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// scrollHeightJS 读取文档高度
const scrollHeightJS = `() => document.body ? document.body.scrollHeight : 0`

// scrollToBottomJS 滚动到底部
const scrollToBottomJS = `() => { window.scrollTo(0, document.body ? document.body.scrollHeight : 0); return true; }`

// FetcherOptions 页面抓取配置
type FetcherOptions struct {
	ScrollToBottom bool
	ScrollPause    time.Duration
	MaxScrolls     int
}

// PageFetcher 页面抓取接口,恢复控制器和爬取器依赖它
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*models.Page, error)
	Refresh(ctx context.Context, requested string) (*models.Page, error)
}

// Fetcher 通过浏览器会话抓取页面
type Fetcher struct {
	session BrowserSession
	opts    FetcherOptions
}

// NewFetcher 创建抓取器
func NewFetcher(session BrowserSession, opts FetcherOptions) *Fetcher {
	if opts.MaxScrolls <= 0 {
		opts.MaxScrolls = 20
	}
	return &Fetcher{session: session, opts: opts}
}

// Fetch 导航到URL并返回渲染后的页面
// 任何失败都返回 FetchError,不会返回不完整的页面
func (f *Fetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	if err := f.session.Navigate(ctx, url); err != nil {
		return nil, &FetchError{URL: url, Cause: err}
	}

	if f.opts.ScrollToBottom {
		f.scrollToBottom(ctx)
	}

	return f.Refresh(ctx, url)
}

// Refresh 不重新导航,重新读取当前文档
func (f *Fetcher) Refresh(ctx context.Context, requested string) (*models.Page, error) {
	markup, err := f.session.Markup(ctx)
	if err != nil {
		return nil, &FetchError{URL: requested, Cause: fmt.Errorf("读取页面内容失败: %w", err)}
	}

	current, err := f.session.CurrentURL(ctx)
	if err != nil || current == "" {
		current = requested
	}

	return &models.Page{
		RequestedURL: requested,
		URL:          current,
		Markup:       markup,
		FetchedAt:    time.Now(),
	}, nil
}

// scrollToBottom 反复滚动直到页面高度不再变化,用于触发懒加载
func (f *Fetcher) scrollToBottom(ctx context.Context) {
	last, err := f.height(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			utils.Debugf("读取页面高度失败: %v", err)
		}
		return
	}

	for i := 0; i < f.opts.MaxScrolls; i++ {
		if _, err := f.session.RunScript(ctx, scrollToBottomJS); err != nil {
			utils.Debugf("滚动失败: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.opts.ScrollPause):
		}

		h, err := f.height(ctx)
		if err != nil || h == last {
			return
		}
		last = h
	}
}

func (f *Fetcher) height(ctx context.Context) (float64, error) {
	v, err := f.session.RunScript(ctx, scrollHeightJS)
	if err != nil {
		return 0, err
	}
	switch h := v.(type) {
	case float64:
		return h, nil
	case int:
		return float64(h), nil
	case int64:
		return float64(h), nil
	}
	return 0, fmt.Errorf("页面高度类型异常: %T", v)
}
