package crawlers

import (
	"context"
	"sync"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/rs/zerolog/log"
)

// DepthOptions 递归模式配置
type DepthOptions struct {
	// false 时只跟随与种子URL同主机的链接
	AllowCrossDomain bool
	// 非nil时保存每个抓取到的页面
	Dump ArtifactSink
}

// DepthCrawler 限定深度的递归爬取,不重试
type DepthCrawler struct {
	fetcher   PageFetcher
	extractor MediaExtractor
	opts      DepthOptions

	links   *LinkExtractor
	visited *VisitedSet

	mu    sync.Mutex
	stats models.CrawlStats
}

// NewDepthCrawler 创建递归爬取器
func NewDepthCrawler(fetcher PageFetcher, extractor MediaExtractor, opts DepthOptions) *DepthCrawler {
	return &DepthCrawler{
		fetcher:   fetcher,
		extractor: extractor,
		opts:      opts,
		visited:   NewVisitedSet(),
	}
}

// Crawl 从种子URL开始递归
// maxDepth 为1时只抓取种子页面,为0时不抓取
// 返回本页任务在前、子页面任务按链接发现顺序在后
func (c *DepthCrawler) Crawl(ctx context.Context, seed string, maxDepth int) []models.Task {
	c.visited = NewVisitedSet()
	c.mu.Lock()
	c.stats = models.CrawlStats{}
	c.mu.Unlock()

	host := ""
	if !c.opts.AllowCrossDomain {
		host = utils.HostOf(seed)
	}
	c.links = NewDepthLinkExtractor(host)

	utils.Infof("🔍 递归爬取启动: %s (最大深度: %d)", seed, maxDepth)
	tasks := c.crawl(ctx, seed, maxDepth)

	c.mu.Lock()
	c.stats.TasksProduced = len(tasks)
	c.mu.Unlock()
	return tasks
}

func (c *DepthCrawler) crawl(ctx context.Context, url string, depth int) []models.Task {
	if depth <= 0 || ctx.Err() != nil {
		return nil
	}
	if !c.visited.Visit(url) {
		return nil
	}

	log.Debug().Str("url", url).Int("depth", depth).Msg("访问页面")

	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		utils.Warnf("❌ 抓取失败,跳过分支 [%s]: %v", url, err)
		c.count(func(s *models.CrawlStats) { s.FetchFailures++ })
		return nil
	}
	c.count(func(s *models.CrawlStats) { s.PagesVisited++ })

	if c.opts.Dump != nil {
		dumpPage(c.opts.Dump, page)
	}

	tasks, err := c.extractor.ExtractMedia(page)
	if err != nil {
		utils.Warnf("❌ 媒体提取失败,跳过分支 [%s]: %v", url, err)
		c.count(func(s *models.CrawlStats) { s.ExtractFailures++ })
		return nil
	}
	if len(tasks) > 0 {
		utils.Infof("从页面找到 %d 个媒体: %s", len(tasks), url)
	}

	links, err := c.links.Extract(page)
	if err != nil {
		utils.Warnf("提取链接失败 [%s]: %v", url, err)
		return tasks
	}
	c.count(func(s *models.CrawlStats) { s.LinksDiscovered += len(links) })

	for _, link := range links {
		tasks = append(tasks, c.crawl(ctx, link, depth-1)...)
	}
	return tasks
}

// GetStats 获取统计信息
func (c *DepthCrawler) GetStats() models.CrawlStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Visited 本次爬取访问过的规范化URL
func (c *DepthCrawler) Visited() []string {
	return c.visited.URLs()
}

func (c *DepthCrawler) count(f func(*models.CrawlStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
