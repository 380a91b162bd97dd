package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// BatchCrawler 依次爬取一组种子,每个种子独立的已访问集合和报告
type BatchCrawler struct {
	config         *Config
	mode           models.CrawlMode
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
	opts           []Option
}

// BatchResult 单个种子的结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.CrawlStats
	Tasks       int
	OutputDir   string
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalTasks    int
	TotalPages    int
	TotalDuration float64
	Stats         models.CrawlStats
	Results       []BatchResult
}

// NewBatchCrawler 创建批量爬取器
func NewBatchCrawler(config *Config, mode models.CrawlMode, batchDelay time.Duration, continueOnErr bool, headerProvider models.HeaderProvider, opts ...Option) *BatchCrawler {
	return &BatchCrawler{
		config:         config,
		mode:           mode,
		batchDelay:     batchDelay,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
		opts:           opts,
	}
}

// CrawlBatch 批量爬取, ctx 取消时停止处理剩余种子
func (bc *BatchCrawler) CrawlBatch(ctx context.Context, seeds []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量爬取: %d个种子", len(seeds))

	summary := &BatchSummary{
		TotalURLs: len(seeds),
		Results:   make([]BatchResult, 0, len(seeds)),
	}
	startTime := time.Now()

	for i, seed := range seeds {
		if ctx.Err() != nil {
			utils.Warn("批量爬取被中断")
			break
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(seeds))
		utils.Infof("种子: %s", seed)

		result := bc.crawlOne(ctx, seed)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalTasks += result.Tasks
			summary.TotalPages += result.Stats.PagesVisited
			summary.Stats.Add(result.Stats)
		} else {
			summary.FailCount++
			utils.Errorf("❌ 爬取失败: %v", result.Error)
			if !bc.continueOnErr {
				utils.Warn("批量爬取中止 (--continue-on-error=false)")
				break
			}
		}

		if i < len(seeds)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个种子...", bc.batchDelay.Seconds())
			if err := crawlers.Wait(ctx, bc.batchDelay); err != nil {
				break
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	bc.printSummary(summary)
	return summary, nil
}

// crawlOne 爬取单个种子
func (bc *BatchCrawler) crawlOne(ctx context.Context, seed string) BatchResult {
	result := BatchResult{URL: seed, ProcessedAt: time.Now()}
	startTime := time.Now()

	crawler, err := NewCrawler(seed, bc.config, bc.mode, bc.headerProvider, bc.opts...)
	if err != nil {
		result.Error = fmt.Errorf("创建爬取器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	tasks, err := crawler.Crawl(ctx)
	if err != nil {
		result.Error = fmt.Errorf("爬取失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = crawler.GetStats()
	result.Tasks = len(tasks)
	result.OutputDir = crawler.GetOutputDir()
	result.Duration = time.Since(startTime).Seconds()
	return result
}

// printSummary 打印批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量爬取摘要")
	utils.Info("==================================================")
	utils.Infof("总种子数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📄 访问页面: %d", summary.TotalPages)
	utils.Infof("📦 下载任务: %d", summary.TotalTasks)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的种子:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
