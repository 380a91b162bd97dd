package main

import (
	"fmt"
	"sort"

	"github.com/RecoveryAshes/MediaCrawl/internal/core"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/spf13/cobra"
)

// validateFlags 验证命令行标志并解析爬取模式
func validateFlags(targetURL, mode string) (models.CrawlMode, error) {
	crawlMode, err := models.ParseCrawlMode(mode)
	if err != nil {
		return "", err
	}

	// instagram 模式允许直接传用户名
	if targetURL != "" && crawlMode != models.ModeInstagram {
		if err := models.ValidateURL(targetURL); err != nil {
			return "", fmt.Errorf("无效的种子URL: %w", err)
		}
	}
	return crawlMode, nil
}

// readSeeds 读取种子文件; instagram 模式下每行为用户名,不做URL校验
func readSeeds(path string, mode models.CrawlMode) ([]string, error) {
	if mode == models.ModeInstagram {
		return utils.ReadLines(path)
	}
	return utils.ReadURLsFromFile(path)
}

// collectOverrides 只收集用户显式指定的标志
func collectOverrides(cmd *cobra.Command) core.CLIOverrides {
	var o core.CLIOverrides
	flags := cmd.Flags()
	if flags.Changed("depth") {
		o.Depth = &depth
	}
	if flags.Changed("domain") {
		o.Domain = &domain
	}
	if flags.Changed("driver") {
		o.Driver = &driver
	}
	if flags.Changed("headless") {
		o.Headless = &headless
	}
	if flags.Changed("page-delay") {
		o.PageDelay = &pageDelay
	}
	if flags.Changed("max-pages") {
		o.MaxPages = &maxPages
	}
	if flags.Changed("sitemap") {
		o.SitemapPath = &sitemapPath
	}
	if flags.Changed("output") {
		o.OutputDir = &outputDir
	}
	if flags.Changed("captcha") {
		o.Captcha = &captcha
	}
	if flags.Changed("log-level") {
		o.LogLevel = &logLevel
	}
	if flags.Changed("headers-file") {
		o.HeadersFile = &headersFile
	}
	return o
}

// runValidateConfig 验证头部配置并打印脱敏后的结果
func runValidateConfig(hm *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := hm.SafeHeaders()
	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for _, name := range names {
		utils.Infof("  %s: %s", name, safeHeaders[name])
	}
	return nil
}
