package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/sites"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// SessionFactory 创建浏览器会话, 默认 crawlers.NewBrowserSession
type SessionFactory func(kind models.DriverKind, opts crawlers.SessionOptions) (crawlers.BrowserSession, error)

// Option 爬取器选项
type Option func(*Crawler)

// WithSessionFactory 替换会话工厂
func WithSessionFactory(f SessionFactory) Option {
	return func(c *Crawler) { c.newSession = f }
}

// WithCaptchaResolver 替换验证码确认方式
func WithCaptchaResolver(r crawlers.CaptchaResolver) Option {
	return func(c *Crawler) { c.resolver = r }
}

// Crawler 一次顶层爬取的协调器
// 创建会话,按模式选择爬取策略,最后写入报告和任务列表
type Crawler struct {
	config         *Config
	seed           string
	mode           models.CrawlMode
	label          string
	headerProvider models.HeaderProvider

	newSession SessionFactory
	resolver   crawlers.CaptchaResolver

	mu     sync.RWMutex
	report *models.RunReport
	tasks  []models.Task
}

// NewCrawler 创建爬取器
// instagram 模式下 seed 可以是用户名或主页URL
func NewCrawler(seed string, config *Config, mode models.CrawlMode, headerProvider models.HeaderProvider, opts ...Option) (*Crawler, error) {
	label, err := seedLabel(seed, mode)
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		config:         config,
		seed:           seed,
		mode:           mode,
		label:          label,
		headerProvider: headerProvider,
		newSession:     crawlers.NewBrowserSession,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// seedLabel 校验种子并返回输出目录标签
func seedLabel(seed string, mode models.CrawlMode) (string, error) {
	if mode == models.ModeInstagram {
		username := InstagramUsername(seed)
		if username == "" {
			return "", fmt.Errorf("无法从 %q 中解析用户名", seed)
		}
		return username, nil
	}
	if err := models.ValidateURL(seed); err != nil {
		return "", fmt.Errorf("无效的种子URL: %w", err)
	}
	return utils.HostOf(seed), nil
}

// InstagramUsername 从用户名或主页URL中取用户名
func InstagramUsername(seed string) string {
	seed = strings.TrimSpace(seed)
	if u, err := url.Parse(seed); err == nil && u.Host != "" {
		seed = strings.Trim(u.Path, "/")
		if i := strings.Index(seed, "/"); i >= 0 {
			seed = seed[:i]
		}
	}
	return strings.TrimPrefix(strings.Trim(seed, "/ "), "@")
}

// Crawl 执行爬取,返回任务列表
// 只有驱动和会话创建失败是致命错误; 单页失败只记录在报告中
func (c *Crawler) Crawl(ctx context.Context) ([]models.Task, error) {
	startTime := time.Now()
	cfg := c.config

	utils.Infof("🚀 开始爬取任务")
	utils.Infof("种子: %s", c.seed)
	utils.Infof("爬取模式: %s", c.mode)
	utils.Infof("浏览器驱动: %s", cfg.Browser.Driver)

	kind, err := crawlers.ParseDriverKind(cfg.Browser.Driver)
	if err != nil {
		return nil, err
	}

	reporter := utils.NewReporter(cfg.Output.BaseDir, c.label)
	report := &models.RunReport{
		RunID:     models.NewRunID(),
		Seed:      c.seed,
		Label:     c.label,
		Mode:      c.mode,
		Driver:    kind,
		StartTime: startTime,
		Config:    cfg.Crawl,
	}

	session, err := c.newSession(kind, crawlers.SessionOptions{
		Headless: cfg.Browser.Headless,
		Timeout:  cfg.Browser.Timeout,
		Headers:  c.headerProvider,
		Guard:    crawlers.NewResourceGuard(cfg.Resource.SafetyReserveMemory, cfg.Resource.CPULoadThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			utils.Warnf("关闭浏览器失败: %v", err)
		}
	}()

	fetcher := crawlers.NewFetcher(session, crawlers.FetcherOptions{
		ScrollToBottom: cfg.Crawl.ScrollToBottom,
		ScrollPause:    cfg.Crawl.ScrollPause,
		MaxScrolls:     cfg.Crawl.MaxScrolls,
	})

	var dump crawlers.ArtifactSink
	if cfg.Crawl.DebugDump {
		dump = reporter
	}

	var tasks []models.Task
	switch c.mode {
	case models.ModeDepth:
		tasks = c.runDepth(ctx, fetcher, dump, report)
	case models.ModeFullSite:
		rc, err := c.newRecovery(fetcher, session, reporter, report)
		if err != nil {
			return nil, err
		}
		tasks = c.runFullSite(ctx, rc, dump, report)
	case models.ModeInstagram:
		rc, err := c.newRecovery(fetcher, session, reporter, report)
		if err != nil {
			return nil, err
		}
		tasks = c.runInstagram(ctx, rc, report)
	default:
		return nil, fmt.Errorf("无效的爬取模式: %s", c.mode)
	}

	if ctx.Err() != nil && report.Error == "" {
		report.Error = "爬取被中断"
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(startTime).Seconds()
	report.Stats.TasksProduced = len(tasks)
	report.Stats.Duration = report.Duration

	if err := reporter.WriteReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}
	if err := reporter.WriteTasks(report.RunID, c.seed, tasks); err != nil {
		utils.Warnf("保存任务列表失败: %v", err)
	}

	c.mu.Lock()
	c.report = report
	c.tasks = tasks
	c.mu.Unlock()

	utils.Infof("✅ 爬取任务完成")
	utils.Infof("访问页面: %d", report.Stats.PagesVisited)
	utils.Infof("下载任务: %d", len(tasks))
	utils.Infof("总耗时: %.2f秒", report.Duration)

	return tasks, nil
}

// newRecovery 按配置创建重试控制器
func (c *Crawler) newRecovery(fetcher crawlers.PageFetcher, session crawlers.BrowserSession, reporter *utils.Reporter, report *models.RunReport) (*crawlers.RecoveryController, error) {
	cfg := c.config.Recovery

	resolver := c.resolver
	if resolver == nil {
		var err error
		if resolver, err = crawlers.NewCaptchaResolver(cfg.Captcha); err != nil {
			return nil, err
		}
	}

	opts := crawlers.RecoveryOptions{
		MaxAttempts:   cfg.MaxAttempts,
		Backoff:       crawlers.NewBackoff(cfg.Backoff, cfg.Cooldown, cfg.MaxCooldown),
		CaptchaMarker: cfg.CaptchaMarker,
		Resolver:      resolver,
		OnStateChange: func(url string, state crawlers.RecoveryState, attempt int) {
			recordRecovery(report, url, state, attempt)
		},
	}
	if cfg.Screenshot {
		opts.Screenshotter = session
		opts.Artifacts = reporter
	}
	return crawlers.NewRecoveryController(fetcher, opts), nil
}

// recordRecovery 把冷却、验证码等待和放弃写入报告
func recordRecovery(report *models.RunReport, url string, state crawlers.RecoveryState, attempt int) {
	switch state {
	case crawlers.StateCoolingDown:
		utils.Infof("⏳ 冷却后重试 (%d): %s", attempt, url)
	case crawlers.StateAwaitingConfirmation:
		utils.Infof("🧩 等待验证码确认: %s", url)
	case crawlers.StateAbandoned:
		utils.Warnf("❌ 放弃: %s", url)
	default:
		return
	}
	report.Recovery = append(report.Recovery, models.RecoveryEvent{
		URL:     url,
		State:   state.String(),
		Attempt: attempt,
	})
}

// runDepth 限定深度递归
func (c *Crawler) runDepth(ctx context.Context, fetcher crawlers.PageFetcher, dump crawlers.ArtifactSink, report *models.RunReport) []models.Task {
	crawler := crawlers.NewDepthCrawler(fetcher, sites.NewGeneralExtractor(), crawlers.DepthOptions{
		AllowCrossDomain: c.config.Crawl.AllowCrossDomain,
		Dump:             dump,
	})
	tasks := crawler.Crawl(ctx, c.seed, c.config.Crawl.MaxDepth)
	report.Stats = crawler.GetStats()
	report.Visited = crawler.Visited()
	return tasks
}

// runFullSite 全站广度优先
func (c *Crawler) runFullSite(ctx context.Context, rc *crawlers.RecoveryController, dump crawlers.ArtifactSink, report *models.RunReport) []models.Task {
	opts := crawlers.FullSiteOptions{
		Host:      c.config.Crawl.Domain,
		PageDelay: c.config.Crawl.PageDelay,
		Dump:      dump,
		OnProgress: func(visited, pending int) {
			utils.Debugf("进度: 已访问 %d, 待访问 %d", visited, pending)
		},
	}
	if c.config.Sitemap.Enabled {
		sitemap := crawlers.NewSitemapLog(c.config.Sitemap.Path)
		opts.Sitemap = sitemap
		report.SitemapPath = sitemap.Path()
	}

	crawler := crawlers.NewFullSiteCrawler(rc, sites.NewGeneralExtractor(), opts)
	tasks := crawler.Crawl(ctx, c.seed)
	report.Stats = crawler.GetStats()
	report.Visited = crawler.Visited()
	report.Failures = crawler.Failures()
	return tasks
}

// runInstagram 沿用户时间线分页
func (c *Crawler) runInstagram(ctx context.Context, rc *crawlers.RecoveryController, report *models.RunReport) []models.Task {
	pcfg := c.config.Pagination
	igOpts := sites.InstagramOptions{
		BaseURL:   pcfg.BaseURL,
		QueryHash: pcfg.QueryHash,
		PageSize:  pcfg.PageSize,
	}
	source := sites.NewInstagramSource(rc, c.label, igOpts)

	opts := crawlers.PaginationOptions{
		MaxPages:          pcfg.MaxPages,
		RequestsPerMinute: pcfg.RequestsPerMinute,
	}
	if c.config.Output.Progress {
		bar := utils.NewProgressBar(-1, "📥 解析帖子")
		defer bar.Finish()
		opts.OnItem = func() { _ = bar.Add(1) }
		opts.OnBatch = func(page, items int) {
			if total := source.Total(); total > 0 {
				bar.ChangeMax(total)
			}
		}
	}

	walker := crawlers.NewPaginationWalker(source, sites.NewInstagramResolver(rc, igOpts), sites.InstagramParser{}, opts)
	tasks, err := walker.Walk(ctx, c.label)
	if err != nil {
		report.Error = err.Error()
		var pErr *crawlers.PaginationError
		switch {
		case errors.Is(err, crawlers.ErrMaxPagesReached):
			utils.Warnf("分页在上限处停止: %v", err)
		case errors.As(err, &pErr):
			report.Failures = append(report.Failures, models.FailedPage{
				URL:       source.ProfileURL(),
				ErrorType: "pagination",
				ErrorMsg:  err.Error(),
				Attempts:  1,
			})
		}
	}

	stats := walker.GetStats()
	rstats := rc.Stats()
	stats.FetchFailures = rstats.Failures
	stats.CaptchaPauses = rstats.CaptchaPauses
	stats.PagesVisited = rstats.Attempts - rstats.Failures
	stats.PagesAbandoned = rstats.Abandoned
	report.Stats = stats
	return tasks
}

// Report 最近一次爬取的报告
func (c *Crawler) Report() *models.RunReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.CrawlStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.report == nil {
		return models.CrawlStats{}
	}
	return c.report.Stats
}

// Label 输出目录标签
func (c *Crawler) Label() string {
	return c.label
}

// GetOutputDir 获取输出目录路径
func (c *Crawler) GetOutputDir() string {
	return utils.NewReporter(c.config.Output.BaseDir, c.label).BaseDir()
}
