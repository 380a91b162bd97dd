package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// chromedpSession 基于chromedp的会话
type chromedpSession struct {
	browserCtx  context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

func newChromedpSession(opts SessionOptions) (*chromedpSession, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	actions := []chromedp.Action{network.Enable()}
	if headers := resolveHeaders(opts.Headers); len(headers) > 0 {
		extra := make(network.Headers, len(headers))
		for name, values := range headers {
			if len(values) > 0 {
				extra[name] = values[0]
			}
		}
		actions = append(actions, network.SetExtraHTTPHeaders(extra))
	}

	// 第一次Run时启动浏览器
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	utils.Debugf("chromedp浏览器已启动")
	return &chromedpSession{
		browserCtx:  browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.Timeout,
	}, nil
}

// run 在浏览器上下文中执行动作,同时响应调用方的取消
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	return nil
}

func (s *chromedpSession) Markup(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, s.timeout, chromedp.Location(&loc))
	return loc, err
}

func (s *chromedpSession) RunScript(ctx context.Context, script string) (any, error) {
	var res any
	if err := s.run(ctx, s.timeout, chromedp.Evaluate("("+script+")()", &res)); err != nil {
		return nil, fmt.Errorf("执行JavaScript失败: %w", err)
	}
	return res, nil
}

func (s *chromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.timeout, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

func (s *chromedpSession) Close() error {
	s.cancel()
	s.allocCancel()
	utils.Debugf("chromedp浏览器已关闭")
	return nil
}
