package crawlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// DefaultPageDelay 全站模式每个URL之后的固定等待
const DefaultPageDelay = 1 * time.Second

// FullSiteOptions 全站模式配置
type FullSiteOptions struct {
	Host      string        // 允许的主机名,空则取种子URL主机
	PageDelay time.Duration // 为0时不等待
	Sitemap   SitemapRecorder
	Sleep     Sleeper
	Dump      ArtifactSink // 非nil时保存每个抓取到的页面
	// 每处理完一个URL回调一次,参数为已访问数和队列剩余数
	OnProgress func(visited, pending int)
}

// FullSiteCrawler 同主机广度优先爬取
// 每个URL最多处理一次,失败页面在重试耗尽后跳过
type FullSiteCrawler struct {
	recovery  *RecoveryController
	extractor MediaExtractor
	opts      FullSiteOptions

	visited *VisitedSet

	mu       sync.Mutex
	stats    models.CrawlStats
	failures []models.FailedPage
}

// NewFullSiteCrawler 创建全站爬取器
func NewFullSiteCrawler(recovery *RecoveryController, extractor MediaExtractor, opts FullSiteOptions) *FullSiteCrawler {
	if opts.Sleep == nil {
		opts.Sleep = Wait
	}
	return &FullSiteCrawler{
		recovery:  recovery,
		extractor: extractor,
		opts:      opts,
		visited:   NewVisitedSet(),
	}
}

// Crawl 从种子URL开始广度优先爬取,直到队列为空或ctx取消
// 返回按访问顺序拼接的任务
func (c *FullSiteCrawler) Crawl(ctx context.Context, seed string) []models.Task {
	c.visited = NewVisitedSet()
	c.mu.Lock()
	c.stats = models.CrawlStats{}
	c.failures = nil
	c.mu.Unlock()

	host := c.opts.Host
	if host == "" {
		host = utils.HostOf(seed)
	}
	links := NewSiteLinkExtractor(host)
	frontier := NewFrontier(c.visited)

	if err := frontier.Push(seed); err != nil {
		utils.Errorf("❌ 种子URL无效: %v", err)
		return nil
	}

	utils.Infof("🌐 全站爬取启动: %s (主机: %s)", seed, host)
	before := c.recovery.Stats()

	var tasks []models.Task
	for {
		if ctx.Err() != nil {
			utils.Warn("⚠️  爬取被中断")
			break
		}

		current, ok := frontier.Pop()
		if !ok {
			break
		}
		if !c.visited.Visit(current) {
			continue
		}

		c.count(func(s *models.CrawlStats) { s.PagesVisited++ })
		utils.Infof("[+] 访问: %s (队列剩余: %d)", current, frontier.Len())

		if c.opts.Sitemap != nil {
			if err := c.opts.Sitemap.Record(NormalizeURL(current)); err != nil {
				utils.Warnf("写入站点地图失败: %v", err)
			}
		}

		tasks = append(tasks, c.process(ctx, current, links, frontier)...)

		if c.opts.OnProgress != nil {
			c.opts.OnProgress(c.visited.Len(), frontier.Len())
		}

		if c.opts.PageDelay > 0 {
			if err := c.opts.Sleep(ctx, c.opts.PageDelay); err != nil {
				break
			}
		}
	}

	after := c.recovery.Stats()
	c.count(func(s *models.CrawlStats) {
		s.FetchFailures += after.Failures - before.Failures
		s.CaptchaPauses += after.CaptchaPauses - before.CaptchaPauses
		s.TasksProduced = len(tasks)
	})

	utils.Infof("✅ 全站爬取结束: 访问 %d 个页面, 放弃 %d 个, 产出 %d 个任务",
		c.visited.Len(), len(c.Failures()), len(tasks))
	return tasks
}

// process 处理单个URL,失败只影响该URL
func (c *FullSiteCrawler) process(ctx context.Context, current string, links *LinkExtractor, frontier *Frontier) []models.Task {
	page, err := c.recovery.Fetch(ctx, current)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		utils.Errorf("❌ 放弃页面 [%s]: %v", current, err)
		c.recordFailure(current, err)
		return nil
	}

	if c.opts.Dump != nil {
		dumpPage(c.opts.Dump, page)
	}

	tasks, err := c.extractor.ExtractMedia(page)
	if err != nil {
		utils.Warnf("❌ 媒体提取失败 [%s]: %v", current, err)
		c.count(func(s *models.CrawlStats) { s.ExtractFailures++ })
		tasks = nil
	}

	found, err := links.Extract(page)
	if err != nil {
		utils.Warnf("提取链接失败 [%s]: %v", current, err)
		return tasks
	}

	enqueued := 0
	for _, link := range found {
		if frontier.Push(link) == nil {
			enqueued++
		}
	}
	c.count(func(s *models.CrawlStats) {
		s.LinksDiscovered += len(found)
		s.LinksEnqueued += enqueued
	})
	return tasks
}

func (c *FullSiteCrawler) recordFailure(url string, err error) {
	errType := "fetch"
	if errors.Is(err, ErrCaptchaUnresolved) {
		errType = "captcha"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.PagesAbandoned++
	c.failures = append(c.failures, models.FailedPage{
		URL:       url,
		ErrorType: errType,
		ErrorMsg:  err.Error(),
		Attempts:  c.recovery.MaxAttempts(),
	})
}

// GetStats 获取统计信息
func (c *FullSiteCrawler) GetStats() models.CrawlStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Failures 被放弃的页面
func (c *FullSiteCrawler) Failures() []models.FailedPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.FailedPage, len(c.failures))
	copy(out, c.failures)
	return out
}

// Visited 已访问的规范化URL,按访问顺序
func (c *FullSiteCrawler) Visited() []string {
	return c.visited.URLs()
}

func (c *FullSiteCrawler) count(f func(*models.CrawlStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
