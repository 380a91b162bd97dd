package sites

import (
	"net/url"
	"path"
	"strings"
)

// mediaExtensions 视为媒体文件的扩展名
var mediaExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".svg": {}, ".tif": {}, ".tiff": {},
	".mp4": {}, ".webm": {}, ".mov": {}, ".m4v": {}, ".avi": {}, ".mkv": {}, ".flv": {}, ".wmv": {},
}

// IsMedia 按扩展名判断是否为图片或视频URL,忽略查询参数和大小写
func IsMedia(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	_, ok := mediaExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
