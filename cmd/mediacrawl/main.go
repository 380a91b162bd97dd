package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/core"
	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string
	headersFile    string
	validateConfig bool

	// 爬取参数
	targetURL   string
	urlFile     string
	mode        string
	depth       int
	driver      string
	headless    bool
	domain      string
	pageDelay   time.Duration
	maxPages    int
	outputDir   string
	sitemapPath string
	captcha     string

	// 批量处理参数
	batchDelay      time.Duration
	continueOnError bool
)

// appConfig 在 PersistentPreRunE 中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "mediacrawl",
	Short: "网页媒体资源爬取工具",
	Long: `MediaCrawl - 基于浏览器自动化的媒体资源爬取工具

通过真实浏览器渲染页面并收集图片、视频等媒体链接,支持:
  • 限定深度递归 (depth)
  • 全站广度优先 + 站点地图 (fullsite)
  • Instagram 用户时间线分页 (instagram)
  • 失败重试与验证码暂停
  • 批量种子处理
  • 自定义HTTP请求头

示例:
  # 递归两层
  mediacrawl -u https://example.com -m depth -d 2

  # 全站爬取并记录站点地图
  mediacrawl -u https://example.com -m fullsite --sitemap sitemap.txt

  # Instagram 用户
  mediacrawl -u someuser -m instagram --max-pages 10

  # 验证头部配置
  mediacrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env 可选
		_ = godotenv.Load()

		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		config.MergeCLIFlags(collectOverrides(cmd))
		appConfig = config

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		headerManager, err := core.NewHeaderManager(appConfig.Browser.HeadersFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if validateConfig {
			return runValidateConfig(headerManager)
		}

		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		crawlMode, err := validateFlags(targetURL, mode)
		if err != nil {
			return err
		}
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}

		if urlFile != "" {
			seeds, err := readSeeds(urlFile, crawlMode)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			batchCrawler := core.NewBatchCrawler(appConfig, crawlMode, batchDelay, continueOnError, headerManager)
			if _, err := batchCrawler.CrawlBatch(ctx, seeds); err != nil {
				return fmt.Errorf("批量爬取失败: %w", err)
			}

			utils.Info("✨ 批量爬取任务完成!")
			return nil
		}

		crawler, err := core.NewCrawler(targetURL, appConfig, crawlMode, headerManager)
		if err != nil {
			return fmt.Errorf("创建爬取器失败: %w", err)
		}

		tasks, err := crawler.Crawl(ctx)
		if err != nil {
			return fmt.Errorf("爬取失败: %w", err)
		}

		printStats(crawler, len(tasks))
		utils.Info("✨ 爬取任务完成!")
		return nil
	},
}

// printStats 打印单个种子的统计
func printStats(crawler *core.Crawler, tasks int) {
	stats := crawler.GetStats()
	report := crawler.Report()

	fmt.Println("\n==================================================")
	fmt.Println("📊 爬取统计")
	fmt.Println("==================================================")
	fmt.Printf("✅ 访问页面: %d\n", stats.PagesVisited)
	fmt.Printf("🔗 入队链接: %d\n", stats.LinksEnqueued)
	fmt.Printf("📦 下载任务: %d\n", tasks)
	fmt.Printf("🔁 抓取失败: %d\n", stats.FetchFailures)
	fmt.Printf("❌ 放弃页面: %d\n", stats.PagesAbandoned)
	if stats.CaptchaPauses > 0 {
		fmt.Printf("🧩 验证码暂停: %d\n", stats.CaptchaPauses)
	}
	if stats.BatchesFetched > 0 {
		fmt.Printf("📄 分页批次: %d (跳过 %d)\n", stats.BatchesFetched, stats.ItemsSkipped)
	}
	if report != nil && report.SitemapPath != "" {
		fmt.Printf("🗺️  站点地图: %s\n", report.SitemapPath)
	}
	fmt.Printf("📁 输出目录: %s\n", crawler.GetOutputDir())
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Println("==================================================")

	if report != nil && report.Error != "" {
		utils.Warnf("爬取提前结束: %s", report.Error)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MediaCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-file", "", "HTTP头部配置文件 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证头部配置文件")

	// 爬取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "种子URL (instagram 模式下可为用户名)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含种子列表的文件路径")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", string(models.ModeDepth), "爬取模式 (depth|fullsite|instagram)")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 2, "递归模式最大深度 (0-20)")
	rootCmd.Flags().StringVar(&driver, "driver", "chrome", "浏览器驱动 (chrome|chromedp|static)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringVar(&domain, "domain", "", "全站模式允许的主机名,默认取种子URL主机")
	rootCmd.Flags().DurationVar(&pageDelay, "page-delay", crawlers.DefaultPageDelay, "全站模式每个URL之后的等待")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", crawlers.DefaultMaxPages, "分页模式最大页数 (0 不限)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")
	rootCmd.Flags().StringVar(&sitemapPath, "sitemap", crawlers.DefaultSitemapPath, "站点地图文件路径")
	rootCmd.Flags().StringVar(&captcha, "captcha", "console", "验证码处理方式 (console|auto)")

	// 批量处理参数
	rootCmd.Flags().DurationVar(&batchDelay, "batch-delay", time.Second, "批量处理种子间延迟")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
