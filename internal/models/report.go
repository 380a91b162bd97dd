package models

import (
	"encoding/json"
	"time"
)

// RunReport 一次顶层爬取的报告
type RunReport struct {
	RunID  string     `json:"run_id"`
	Seed   string     `json:"seed"`
	Label  string     `json:"label"`
	Mode   CrawlMode  `json:"mode"`
	Driver DriverKind `json:"driver"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	Stats CrawlStats `json:"stats"`

	// 已访问的规范化URL (按访问顺序)
	Visited []string `json:"visited"`

	// 放弃的URL及原因
	Failures []FailedPage `json:"failures,omitempty"`

	// 重试过程中的冷却、验证码等待和放弃
	Recovery []RecoveryEvent `json:"recovery,omitempty"`

	// 致命错误或提前结束的原因
	Error string `json:"error,omitempty"`

	SitemapPath string      `json:"sitemap_path,omitempty"`
	OutputDir   string      `json:"output_dir"`
	Config      CrawlConfig `json:"config"`
}

// RecoveryEvent 重试状态变化
type RecoveryEvent struct {
	URL     string `json:"url"`
	State   string `json:"state"` // cooling_down, awaiting_confirmation, abandoned
	Attempt int    `json:"attempt"`
}

// FailedPage 失败页面信息
type FailedPage struct {
	URL       string `json:"url"`
	ErrorType string `json:"error_type"` // fetch, extract, captcha, pagination
	ErrorMsg  string `json:"error_msg"`
	Attempts  int    `json:"attempts"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
