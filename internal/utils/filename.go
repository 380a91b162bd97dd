package utils

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// 文件名中不允许出现的字符
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\n\r\t]`)

// SanitizeFilename 将任意文本转为可用作目录/文件名的标签
// 非法字符替换为下划线,去掉首尾空白以及末尾的点和空格
func SanitizeFilename(name string) string {
	s := unsafeFilenameChars.ReplaceAllString(name, "_")
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ". ")
}

// FilenameFromURL 取URL路径的最后一段作为文件名提示
func FilenameFromURL(rawURL string) string {
	u, err := parseURL(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return SanitizeFilename(base)
}

func parseURL(rawURL string) (*url.URL, error) {
	return url.Parse(strings.TrimSpace(rawURL))
}
