package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task 媒体下载任务 (仅描述,下载不在本程序范围内)
type Task struct {
	MediaURL     string `json:"media_url"`               // 媒体绝对URL
	Label        string `json:"label"`                   // 分组标签(页面标题或用户名)
	FilenameHint string `json:"filename_hint,omitempty"` // 文件名提示,空表示无
}

// String 便于日志输出
func (t Task) String() string {
	if t.FilenameHint == "" {
		return fmt.Sprintf("%s [%s]", t.MediaURL, t.Label)
	}
	return fmt.Sprintf("%s [%s] -> %s", t.MediaURL, t.Label, t.FilenameHint)
}

// CrawlMode 爬取模式
type CrawlMode string

const (
	ModeFullSite  CrawlMode = "fullsite"  // 全站广度优先
	ModeDepth     CrawlMode = "depth"     // 限定深度递归
	ModeInstagram CrawlMode = "instagram" // 游标分页接口
)

// ParseCrawlMode 解析爬取模式
func ParseCrawlMode(s string) (CrawlMode, error) {
	switch CrawlMode(s) {
	case ModeFullSite, ModeDepth, ModeInstagram:
		return CrawlMode(s), nil
	}
	return "", fmt.Errorf("无效的爬取模式: %s (有效值: fullsite, depth, instagram)", s)
}

// DriverKind 浏览器驱动类型
type DriverKind string

const (
	DriverChrome   DriverKind = "chrome"   // go-rod
	DriverChromedp DriverKind = "chromedp" // chromedp
	DriverStatic   DriverKind = "static"   // colly, 不执行JS
)

// CrawlConfig 爬取配置
type CrawlConfig struct {
	MaxDepth         int           `mapstructure:"max_depth" json:"max_depth"`                   // 递归模式最大深度 (默认:2)
	Domain           string        `mapstructure:"domain" json:"domain"`                         // 全站模式允许的主机名,空则取种子URL主机
	AllowCrossDomain bool          `mapstructure:"allow_cross_domain" json:"allow_cross_domain"` // 递归模式是否允许跨域 (默认:true)
	PageDelay        time.Duration `mapstructure:"page_delay" json:"page_delay"`                 // 全站模式每个URL之后的固定等待 (默认:1s)
	ScrollToBottom   bool          `mapstructure:"scroll_to_bottom" json:"scroll_to_bottom"`     // 读取前滚动到底部
	ScrollPause      time.Duration `mapstructure:"scroll_pause" json:"scroll_pause"`             // 每次滚动后等待
	MaxScrolls       int           `mapstructure:"max_scrolls" json:"max_scrolls"`               // 最大滚动次数
	DebugDump        bool          `mapstructure:"debug_dump" json:"debug_dump"`                 // 保存抓取到的页面HTML
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.MaxDepth < 0 || c.MaxDepth > 20 {
		return fmt.Errorf("深度必须在0-20之间")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("页面间隔不能为负数")
	}
	if c.MaxScrolls < 0 {
		return fmt.Errorf("最大滚动次数不能为负数")
	}
	return nil
}

// CrawlStats 爬取统计
type CrawlStats struct {
	PagesVisited    int     `json:"pages_visited"`    // 已访问页面数
	FetchFailures   int     `json:"fetch_failures"`   // 单次抓取失败次数
	PagesAbandoned  int     `json:"pages_abandoned"`  // 重试耗尽后放弃的页面
	ExtractFailures int     `json:"extract_failures"` // 媒体提取失败页面
	CaptchaPauses   int     `json:"captcha_pauses"`   // 验证码暂停次数
	LinksDiscovered int     `json:"links_discovered"` // 发现的链接
	LinksEnqueued   int     `json:"links_enqueued"`   // 入队的链接
	BatchesFetched  int     `json:"batches_fetched"`  // 分页批次数
	ItemsSkipped    int     `json:"items_skipped"`    // 分页中被跳过的条目
	TasksProduced   int     `json:"tasks_produced"`   // 产出任务数
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// Add 累加另一份统计
func (s *CrawlStats) Add(o CrawlStats) {
	s.PagesVisited += o.PagesVisited
	s.FetchFailures += o.FetchFailures
	s.PagesAbandoned += o.PagesAbandoned
	s.ExtractFailures += o.ExtractFailures
	s.CaptchaPauses += o.CaptchaPauses
	s.LinksDiscovered += o.LinksDiscovered
	s.LinksEnqueued += o.LinksEnqueued
	s.BatchesFetched += o.BatchesFetched
	s.ItemsSkipped += o.ItemsSkipped
	s.TasksProduced += o.TasksProduced
	s.Duration += o.Duration
}

// TaskList 任务列表的JSON输出形式
type TaskList struct {
	RunID string `json:"run_id"`
	Seed  string `json:"seed"`
	Count int    `json:"count"`
	Tasks []Task `json:"tasks"`
}

// ToJSON 序列化为JSON
func (l *TaskList) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
