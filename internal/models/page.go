package models

import "time"

// Page 一次成功抓取的页面快照
// 提取器只通过它获取上下文,不直接读取浏览器会话
type Page struct {
	RequestedURL string    `json:"requested_url"` // 请求的URL
	URL          string    `json:"url"`           // 导航后的实际URL (重定向后),作为相对链接的基准
	Markup       string    `json:"-"`             // 渲染后的HTML
	FetchedAt    time.Time `json:"fetched_at"`
}

// Redirected 是否发生了重定向
func (p *Page) Redirected() bool {
	return p.URL != "" && p.URL != p.RequestedURL
}
