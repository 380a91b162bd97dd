package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// linkRules 链接过滤规则
type linkRules int

const (
	depthRules linkRules = iota // 只跟随 / 或 http 开头的href
	siteRules                   // 丢弃锚点和javascript链接,限定主机
)

// LinkExtractor 从页面HTML中提取可跟随的链接
type LinkExtractor struct {
	rules linkRules

	// 允许的主机名,为空表示不限制
	allowedHost string
}

// NewDepthLinkExtractor 递归模式的提取器
// sameHost 为空时不做域名限制
func NewDepthLinkExtractor(sameHost string) *LinkExtractor {
	return &LinkExtractor{rules: depthRules, allowedHost: sameHost}
}

// NewSiteLinkExtractor 全站模式的提取器,只保留主机名等于 host 的链接
func NewSiteLinkExtractor(host string) *LinkExtractor {
	return &LinkExtractor{rules: siteRules, allowedHost: host}
}

// Extract 按文档顺序返回绝对URL,同一页面内按规范形式去重
// HTML解析失败时返回 ExtractionError
func (e *LinkExtractor) Extract(page *models.Page) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page.Markup))
	if err != nil {
		return nil, &ExtractionError{URL: page.URL, Cause: fmt.Errorf("解析HTML失败: %w", err)}
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, &ExtractionError{URL: page.URL, Cause: fmt.Errorf("解析baseURL失败: %w", err)}
	}

	var links []string
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if abs, ok := e.resolve(base, attr.Val); ok {
					key := NormalizeURL(abs)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						links = append(links, abs)
					}
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolve 应用过滤规则并转为绝对URL
func (e *LinkExtractor) resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	switch e.rules {
	case depthRules:
		if !strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "http") {
			return "", false
		}
	case siteRules:
		if strings.HasPrefix(href, "#") || strings.Contains(strings.ToLower(href), "javascript:") {
			return "", false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	if e.allowedHost != "" && !strings.EqualFold(abs.Host, e.allowedHost) {
		log.Debug().Str("link", abs.String()).Str("allowed", e.allowedHost).Msg("跨域链接已过滤")
		return "", false
	}

	return abs.String(), true
}
