package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
)

// ReadLines 读取非空行,忽略 # 开头的注释行
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("文件中没有有效内容: %s", path)
	}
	return lines, nil
}

// ReadURLsFromFile 从文件中读取种子URL列表
// 无效URL记录警告后跳过
func ReadURLsFromFile(path string) ([]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(lines))
	for i, line := range lines {
		if err := models.ValidateURL(line); err != nil {
			Warnf("跳过无效URL (第%d项): %s - %v", i+1, line, err)
			continue
		}
		urls = append(urls, line)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("URL文件中没有有效的URL")
	}

	Infof("从文件加载了 %d 个URL", len(urls))
	return urls, nil
}

// HostOf 返回URL的主机部分 (含端口),解析失败返回空串
func HostOf(rawURL string) string {
	u, err := parseURL(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
