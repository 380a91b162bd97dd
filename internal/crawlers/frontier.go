package crawlers

import (
	"fmt"
	"net/url"
	"sync"
)

// Frontier 全站模式的先进先出待爬队列
// 保存原始URL,按规范形式去重: 已访问或已在队列中的URL不会再次入队
type Frontier struct {
	mu      sync.Mutex
	items   []string
	queued  map[string]struct{}
	visited *VisitedSet
}

// NewFrontier 创建队列,visited 用于入队和出队时的检查
func NewFrontier(visited *VisitedSet) *Frontier {
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: visited,
	}
}

// Push 添加URL到队列尾部
func (f *Frontier) Push(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s", parsed.Scheme)
	}

	key := NormalizeURL(rawURL)
	if f.visited.Contains(key) {
		return fmt.Errorf("URL已访问: %s", rawURL)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.queued[key]; ok {
		return fmt.Errorf("URL已在队列中: %s", rawURL)
	}
	f.queued[key] = struct{}{}
	f.items = append(f.items, rawURL)
	return nil
}

// Pop 取出队首URL,队列为空时返回false
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return "", false
	}
	next := f.items[0]
	f.items[0] = ""
	f.items = f.items[1:]
	delete(f.queued, NormalizeURL(next))
	return next, true
}

// Len 队列长度
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
