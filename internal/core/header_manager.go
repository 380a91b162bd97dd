package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/MediaCrawl/internal/config"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// HeaderManager 合并浏览器会话使用的请求头部
// 优先级: 默认 < 配置文件 < 命令行, 实现 models.HeaderProvider
type HeaderManager struct {
	loader    *config.HeaderConfigLoader
	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	defaults http.Header
	cli      http.Header

	once    sync.Once
	file    http.Header
	loadErr error
}

// NewHeaderManager 创建头部管理器
// configFile 为空时使用 configs/headers.yaml, cliHeaders 为 -H 参数
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	return &HeaderManager{
		loader:    config.NewHeaderConfigLoader(configFile),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		defaults:  defaultHeaders(),
		cli:       cli,
	}, nil
}

// defaultHeaders 浏览器导航使用的默认头部
func defaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
		"Accept-Language": []string{"zh-CN,zh;q=0.9,en;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// load 只读取一次配置文件
func (hm *HeaderManager) load() error {
	hm.once.Do(func() {
		cfg, err := hm.loader.LoadConfig()
		if err != nil {
			utils.Errorf("加载HTTP头部配置失败: %v", err)
			hm.loadErr = err
			return
		}
		hm.file = cfg.ToHTTPHeader()
		if len(hm.file) > 0 {
			utils.Debugf("加载了%d个HTTP头部配置: %s", len(hm.file), hm.redactor.RedactToString(hm.file))
		}
	})
	return hm.loadErr
}

// Validate 依次验证默认、配置文件和命令行头部
func (hm *HeaderManager) Validate() error {
	if err := hm.load(); err != nil {
		return err
	}
	for _, layer := range []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.file},
		{"命令行", hm.cli},
	} {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.name, err)
			return err
		}
	}
	return nil
}

// Merged 按优先级合并后的头部
func (hm *HeaderManager) Merged() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.file, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// SafeHeaders 脱敏后的合并头部,用于日志和报告
func (hm *HeaderManager) SafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.Merged())
}

// GetHeaders 实现 models.HeaderProvider
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	return hm.Merged(), nil
}
