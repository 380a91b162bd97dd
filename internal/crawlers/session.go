package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// BrowserSession 一个浏览器标签页 (或等价的HTTP会话)
// 实现不保证并发安全,同一时刻只由一个爬取器使用
type BrowserSession interface {
	// Navigate 打开URL并等待加载完成
	Navigate(ctx context.Context, url string) error
	// Markup 当前文档的HTML
	Markup(ctx context.Context) (string, error)
	// CurrentURL 当前文档的实际URL (重定向之后)
	CurrentURL(ctx context.Context) (string, error)
	// RunScript 执行一个JS函数表达式,如 "() => document.title"
	RunScript(ctx context.Context, script string) (any, error)
	// Screenshot 整页截图 (PNG/JPEG)
	Screenshot(ctx context.Context) ([]byte, error)
	// Close 释放浏览器资源
	Close() error
}

// SessionOptions 会话配置
type SessionOptions struct {
	Headless bool
	// 单次导航超时
	Timeout time.Duration
	// 请求头部来源,可为nil
	Headers models.HeaderProvider
	// 启动真实浏览器前检查资源,可为nil
	Guard *ResourceGuard
}

// DefaultSessionTimeout 默认导航超时
const DefaultSessionTimeout = 30 * time.Second

// ParseDriverKind 解析驱动名
func ParseDriverKind(name string) (models.DriverKind, error) {
	kind := models.DriverKind(strings.ToLower(strings.TrimSpace(name)))
	switch kind {
	case models.DriverChrome, models.DriverChromedp, models.DriverStatic:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q (可选: chrome, chromedp, static)", ErrUnknownDriver, name)
}

// NewBrowserSession 按驱动类型创建会话
func NewBrowserSession(kind models.DriverKind, opts SessionOptions) (BrowserSession, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSessionTimeout
	}

	switch kind {
	case models.DriverChrome, models.DriverChromedp:
		if opts.Guard != nil {
			opts.Guard.Check()
		}
	}

	switch kind {
	case models.DriverChrome:
		return newRodSession(opts)
	case models.DriverChromedp:
		return newChromedpSession(opts)
	case models.DriverStatic:
		return newStaticSession(opts)
	}
	return nil, fmt.Errorf("%w: %q (可选: chrome, chromedp, static)", ErrUnknownDriver, kind)
}

// resolveHeaders 读取头部,失败时记录警告并使用浏览器默认头部
func resolveHeaders(provider models.HeaderProvider) http.Header {
	if provider == nil {
		return nil
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败,使用浏览器默认头部: %v", err)
		return nil
	}
	return headers
}
