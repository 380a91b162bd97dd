package crawlers

import (
	"strings"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

// MediaExtractor 从单个页面提取下载任务
// 内容无法解析时返回 ExtractionError
type MediaExtractor interface {
	ExtractMedia(page *models.Page) ([]models.Task, error)
}

// MediaExtractorFunc 函数适配器
type MediaExtractorFunc func(page *models.Page) ([]models.Task, error)

// ExtractMedia 调用函数本身
func (f MediaExtractorFunc) ExtractMedia(page *models.Page) ([]models.Task, error) {
	return f(page)
}

// dumpPage 调试模式下保存页面HTML
func dumpPage(sink ArtifactSink, page *models.Page) {
	if sink == nil {
		return
	}
	name := strings.TrimPrefix(NormalizeURL(page.URL), "https://") + ".html"
	if _, err := sink.SaveArtifact("pages", name, []byte(page.Markup)); err != nil {
		utils.Debugf("保存页面失败: %v", err)
	}
}
