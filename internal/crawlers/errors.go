package crawlers

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDriver 未知的浏览器驱动名,唯一的致命错误
	ErrUnknownDriver = errors.New("未知的浏览器驱动")
	// ErrUnsupported 当前驱动不支持该操作 (如静态驱动执行脚本)
	ErrUnsupported = errors.New("当前驱动不支持该操作")
	// ErrRetriesExhausted 重试次数耗尽,页面被放弃
	ErrRetriesExhausted = errors.New("已达最大重试次数")
	// ErrCaptchaUnresolved 验证码未被确认
	ErrCaptchaUnresolved = errors.New("验证码未处理")
	// ErrMaxPagesReached 分页达到上限
	ErrMaxPagesReached = errors.New("已达分页上限")
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("浏览器会话已关闭")
)

// FetchError 页面抓取失败 (导航失败、超时、读取内容失败)
type FetchError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ExtractionError 页面内容无法解析出媒体
type ExtractionError struct {
	URL   string
	Cause error
}

// Error 实现error接口
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("提取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// PaginationError 分页响应缺少游标或条目
type PaginationError struct {
	Page  int    // 第几批 (从1开始)
	Raw   []byte // 原始响应
	Cause error
}

// Error 实现error接口
func (e *PaginationError) Error() string {
	return fmt.Sprintf("分页响应无效 (第%d批): %v", e.Page, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *PaginationError) Unwrap() error {
	return e.Cause
}

// RawSnippet 截断后的原始响应,用于日志
func (e *PaginationError) RawSnippet(max int) string {
	if len(e.Raw) <= max {
		return string(e.Raw)
	}
	return string(e.Raw[:max]) + "..."
}
