package models

import "encoding/json"

// PageCursor 分页游标
type PageCursor struct {
	Token   string `json:"token"`    // 不透明游标,首页为空
	HasMore bool   `json:"has_more"` // 是否还有下一页
}

// Item 批次中的单个条目
type Item struct {
	ID   string          `json:"id"`
	Code string          `json:"code,omitempty"` // 详情页标识 (如shortcode)
	Raw  json.RawMessage `json:"raw,omitempty"`
}

// Batch 分页接口的一页结果
type Batch struct {
	Items  []Item     `json:"items"`
	Cursor PageCursor `json:"cursor"`
	Raw    []byte     `json:"-"` // 原始响应,便于诊断
}
