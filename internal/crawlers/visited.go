package crawlers

import (
	"net/url"
	"strings"
	"sync"
)

// NormalizeURL 返回用于去重的规范形式
// 协议统一为https,主机名小写,去掉路径末尾的斜杠,丢弃查询和片段
// 无法解析的输入原样返回
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	return "https://" + strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/")
}

// VisitedSet 已访问URL集合,只增不减
// 每次顶层爬取新建一个,不在多次爬取间共享
type VisitedSet struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	order []string
}

// NewVisitedSet 创建空集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Visit 标记为已访问,首次加入时返回true
func (v *VisitedSet) Visit(raw string) bool {
	key := NormalizeURL(raw)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	v.order = append(v.order, key)
	return true
}

// Contains 是否已访问
func (v *VisitedSet) Contains(raw string) bool {
	key := NormalizeURL(raw)
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.seen[key]
	return ok
}

// Len 已访问数量
func (v *VisitedSet) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.seen)
}

// URLs 按访问顺序返回规范化URL
func (v *VisitedSet) URLs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}
