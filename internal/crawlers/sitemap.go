package crawlers

import (
	"fmt"
	"os"
	"sync"
)

// DefaultSitemapPath 默认站点地图路径 (相对工作目录)
const DefaultSitemapPath = "sitemap.txt"

// SitemapRecorder 记录已访问的规范化URL
type SitemapRecorder interface {
	Record(normalizedURL string) error
}

// SitemapLog 追加写入的文本站点地图,每行一个规范化URL
// 不会截断已有内容,运行期间也不会被读回
type SitemapLog struct {
	path string
	mu   sync.Mutex
}

// NewSitemapLog 创建站点地图,path 为空时使用 sitemap.txt
func NewSitemapLog(path string) *SitemapLog {
	if path == "" {
		path = DefaultSitemapPath
	}
	return &SitemapLog{path: path}
}

// Path 文件路径
func (s *SitemapLog) Path() string {
	return s.path
}

// Record 追加一行
func (s *SitemapLog) Record(normalizedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开站点地图失败 [%s]: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(normalizedURL + "\n"); err != nil {
		return fmt.Errorf("写入站点地图失败 [%s]: %w", s.path, err)
	}
	return nil
}
