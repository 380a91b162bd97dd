package crawlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultMaxPages 分页请求上限
const DefaultMaxPages = 1000

// BatchSource 按游标获取一批条目
// 零值游标表示第一页
type BatchSource interface {
	FetchBatch(ctx context.Context, cursor models.PageCursor) (*models.Batch, error)
}

// ItemResolver 获取条目详情
type ItemResolver interface {
	ResolveItem(ctx context.Context, item models.Item) (json.RawMessage, error)
}

// ItemParser 把条目详情解析为下载任务
type ItemParser interface {
	ParseItem(detail json.RawMessage, label string) ([]models.Task, error)
}

// PaginationOptions 分页配置
type PaginationOptions struct {
	MaxPages          int // 0 表示不限制
	RequestsPerMinute int // 0 表示不限速
	OnBatch           func(page, items int)
	OnItem            func()
}

// PaginationWalker 沿游标遍历分页接口直到 hasMore 为假
type PaginationWalker struct {
	source   BatchSource
	resolver ItemResolver // nil 时直接解析条目自带的数据
	parser   ItemParser
	opts     PaginationOptions
	limiter  *rate.Limiter

	stats models.CrawlStats
}

// NewPaginationWalker 创建分页遍历器
func NewPaginationWalker(source BatchSource, resolver ItemResolver, parser ItemParser, opts PaginationOptions) *PaginationWalker {
	w := &PaginationWalker{
		source:   source,
		resolver: resolver,
		parser:   parser,
		opts:     opts,
	}
	if opts.RequestsPerMinute > 0 {
		w.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return w
}

// Walk 遍历所有页面,任务按批次和条目顺序返回
// 出错时返回已收集的任务和错误
func (w *PaginationWalker) Walk(ctx context.Context, label string) ([]models.Task, error) {
	w.stats = models.CrawlStats{}
	var tasks []models.Task
	cursor := models.PageCursor{}

	for page := 1; ; page++ {
		if w.opts.MaxPages > 0 && page > w.opts.MaxPages {
			utils.Warnf("⚠️  已达到分页上限 %d, 停止", w.opts.MaxPages)
			return w.finish(tasks), fmt.Errorf("%w: %d", ErrMaxPagesReached, w.opts.MaxPages)
		}
		if err := w.wait(ctx); err != nil {
			return w.finish(tasks), err
		}

		batch, err := w.source.FetchBatch(ctx, cursor)
		if err != nil {
			var pErr *PaginationError
			if errors.As(err, &pErr) {
				log.Error().Err(pErr.Cause).Int("page", pErr.Page).Str("raw", pErr.RawSnippet(512)).Msg("❌ 分页响应无法解析")
			} else {
				utils.Errorf("❌ 获取第%d页失败: %v", page, err)
			}
			return w.finish(tasks), err
		}
		w.stats.BatchesFetched++
		utils.Infof("📄 第%d页: %d 个条目", page, len(batch.Items))
		if w.opts.OnBatch != nil {
			w.opts.OnBatch(page, len(batch.Items))
		}

		for _, item := range batch.Items {
			itemTasks, err := w.resolve(ctx, item, label)
			if err != nil {
				if ctx.Err() != nil {
					return w.finish(tasks), ctx.Err()
				}
				utils.Warnf("跳过条目 [%s]: %v", item.Code, err)
				w.stats.ItemsSkipped++
				continue
			}
			tasks = append(tasks, itemTasks...)
			if w.opts.OnItem != nil {
				w.opts.OnItem()
			}
		}

		if !batch.Cursor.HasMore {
			return w.finish(tasks), nil
		}
		if batch.Cursor.Token == "" {
			return w.finish(tasks), &PaginationError{Page: page, Raw: batch.Raw, Cause: errors.New("has_more 为真但游标为空")}
		}
		cursor = batch.Cursor
	}
}

func (w *PaginationWalker) resolve(ctx context.Context, item models.Item, label string) ([]models.Task, error) {
	detail := item.Raw
	if w.resolver != nil {
		if err := w.wait(ctx); err != nil {
			return nil, err
		}
		var err error
		detail, err = w.resolver.ResolveItem(ctx, item)
		if err != nil {
			return nil, err
		}
	}
	return w.parser.ParseItem(detail, label)
}

func (w *PaginationWalker) wait(ctx context.Context) error {
	if w.limiter == nil {
		return ctx.Err()
	}
	return w.limiter.Wait(ctx)
}

func (w *PaginationWalker) finish(tasks []models.Task) []models.Task {
	w.stats.TasksProduced = len(tasks)
	return tasks
}

// GetStats 获取统计信息
func (w *PaginationWalker) GetStats() models.CrawlStats {
	return w.stats
}
