package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession 基于go-rod的会话,整个爬取共用一个标签页
type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	timeout time.Duration

	closeOnce sync.Once
}

func newRodSession(opts SessionOptions) (*rodSession, error) {
	l := launcher.New().Headless(opts.Headless)

	// 允许访问自签名或过期证书的站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	if headers := resolveHeaders(opts.Headers); len(headers) > 0 {
		dict := make([]string, 0, len(headers)*2)
		for name, values := range headers {
			if len(values) > 0 {
				dict = append(dict, name, values[0])
			}
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			utils.Warnf("设置请求头部失败: %v", err)
		}
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return &rodSession{browser: browser, page: page, timeout: opts.Timeout}, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

func (s *rodSession) Markup(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *rodSession) RunScript(ctx context.Context, script string) (any, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: script, ByValue: true})
	if err != nil {
		return nil, fmt.Errorf("执行JavaScript失败: %w", err)
	}
	return res.Value.Val(), nil
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(true, nil)
}

func (s *rodSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.browser.Close()
		utils.Debugf("浏览器已关闭")
	})
	return err
}
