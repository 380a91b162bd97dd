package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/sites"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 如 MEDIACRAWL_CRAWL_MAX_DEPTH
const EnvPrefix = "MEDIACRAWL"

// Config 应用程序配置
type Config struct {
	Browser    BrowserConfig      `mapstructure:"browser"`
	Crawl      models.CrawlConfig `mapstructure:"crawl"`
	Recovery   RecoveryConfig     `mapstructure:"recovery"`
	Pagination PaginationConfig   `mapstructure:"pagination"`
	Sitemap    SitemapConfig      `mapstructure:"sitemap"`
	Logging    LoggingConfig      `mapstructure:"logging"`
	Output     OutputConfig       `mapstructure:"output"`
	Resource   ResourceConfig     `mapstructure:"resource"`
}

// BrowserConfig 浏览器会话配置
type BrowserConfig struct {
	Driver      string        `mapstructure:"driver"`       // chrome, chromedp, static
	Headless    bool          `mapstructure:"headless"`     // 无头模式
	Timeout     time.Duration `mapstructure:"timeout"`      // 单次导航超时
	HeadersFile string        `mapstructure:"headers_file"` // 自定义头部配置文件
}

// RecoveryConfig 重试和验证码配置
type RecoveryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Backoff       string        `mapstructure:"backoff"` // constant, exponential
	Cooldown      time.Duration `mapstructure:"cooldown"`
	MaxCooldown   time.Duration `mapstructure:"max_cooldown"`
	CaptchaMarker string        `mapstructure:"captcha_marker"`
	Captcha       string        `mapstructure:"captcha"`    // console, auto
	Screenshot    bool          `mapstructure:"screenshot"` // 验证码截图
}

// PaginationConfig 分页接口配置
type PaginationConfig struct {
	MaxPages          int    `mapstructure:"max_pages"` // 0 表示不限制
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	PageSize          int    `mapstructure:"page_size"`
	QueryHash         string `mapstructure:"query_hash"`
	BaseURL           string `mapstructure:"base_url"`
}

// SitemapConfig 站点地图配置
type SitemapConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir  string `mapstructure:"base_dir"`
	Progress bool   `mapstructure:"progress"` // 分页模式显示进度条
}

// ResourceConfig 启动浏览器前的资源检查
type ResourceConfig struct {
	SafetyReserveMemory int     `mapstructure:"safety_reserve_memory"` // MB
	CPULoadThreshold    float64 `mapstructure:"cpu_load_threshold"`    // %
}

// LoadConfig 加载配置文件
// configPath 为空时依次搜索 ./configs, . 和 ~/.mediacrawl 下的 config.yaml
// 找不到配置文件时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mediacrawl"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// DefaultConfig 只包含默认值的配置
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.driver", string(models.DriverChrome))
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout", crawlers.DefaultSessionTimeout)
	v.SetDefault("browser.headers_file", "")

	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.domain", "")
	v.SetDefault("crawl.allow_cross_domain", true)
	v.SetDefault("crawl.page_delay", crawlers.DefaultPageDelay)
	v.SetDefault("crawl.scroll_to_bottom", true)
	v.SetDefault("crawl.scroll_pause", time.Second)
	v.SetDefault("crawl.max_scrolls", 20)
	v.SetDefault("crawl.debug_dump", false)

	v.SetDefault("recovery.max_attempts", crawlers.DefaultMaxAttempts)
	v.SetDefault("recovery.backoff", "constant")
	v.SetDefault("recovery.cooldown", crawlers.DefaultCooldown)
	v.SetDefault("recovery.max_cooldown", 30*time.Second)
	v.SetDefault("recovery.captcha_marker", crawlers.DefaultCaptchaMarker)
	v.SetDefault("recovery.captcha", "console")
	v.SetDefault("recovery.screenshot", true)

	v.SetDefault("pagination.max_pages", crawlers.DefaultMaxPages)
	v.SetDefault("pagination.requests_per_minute", 0)
	v.SetDefault("pagination.page_size", sites.DefaultPageSize)
	v.SetDefault("pagination.query_hash", sites.DefaultQueryHash)
	v.SetDefault("pagination.base_url", sites.InstagramBaseURL)

	v.SetDefault("sitemap.enabled", true)
	v.SetDefault("sitemap.path", crawlers.DefaultSitemapPath)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.progress", true)

	v.SetDefault("resource.safety_reserve_memory", 512)
	v.SetDefault("resource.cpu_load_threshold", 80)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if _, err := crawlers.ParseDriverKind(c.Browser.Driver); err != nil {
		return err
	}
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if c.Recovery.MaxAttempts < 1 {
		return fmt.Errorf("最大尝试次数至少为1")
	}
	if c.Recovery.Cooldown < 0 {
		return fmt.Errorf("冷却时间不能为负数")
	}
	if _, err := crawlers.NewCaptchaResolver(c.Recovery.Captcha); err != nil {
		return err
	}
	if c.Pagination.MaxPages < 0 {
		return fmt.Errorf("分页上限不能为负数")
	}
	if c.Pagination.RequestsPerMinute < 0 {
		return fmt.Errorf("每分钟请求数不能为负数")
	}
	return nil
}

// CLIOverrides 命令行显式指定的参数, nil 表示未指定
type CLIOverrides struct {
	Depth       *int
	Domain      *string
	Driver      *string
	Headless    *bool
	PageDelay   *time.Duration
	MaxPages    *int
	SitemapPath *string
	OutputDir   *string
	Captcha     *string
	LogLevel    *string
	HeadersFile *string
}

// MergeCLIFlags 合并命令行参数到配置,命令行优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Depth != nil {
		c.Crawl.MaxDepth = *o.Depth
	}
	if o.Domain != nil {
		c.Crawl.Domain = *o.Domain
	}
	if o.Driver != nil {
		c.Browser.Driver = *o.Driver
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if o.PageDelay != nil {
		c.Crawl.PageDelay = *o.PageDelay
	}
	if o.MaxPages != nil {
		c.Pagination.MaxPages = *o.MaxPages
	}
	if o.SitemapPath != nil {
		c.Sitemap.Path = *o.SitemapPath
	}
	if o.OutputDir != nil {
		c.Output.BaseDir = *o.OutputDir
	}
	if o.Captcha != nil {
		c.Recovery.Captcha = *o.Captcha
	}
	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.HeadersFile != nil {
		c.Browser.HeadersFile = *o.HeadersFile
	}
}
