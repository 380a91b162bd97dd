// Package crawlers 提供浏览器会话、页面抓取和三种爬取策略
//
// # 概述
//
// 所有爬取共享一个 BrowserSession,通过 Fetcher 读取渲染后的页面。
// 会话有三种实现: go-rod (chrome)、chromedp 和 colly (static, 不执行JS)。
//
// # 爬取策略
//
// ## DepthCrawler
//
// 限定深度的递归爬取,抓取失败的分支直接返回空结果,不重试。
//
//	crawler := NewDepthCrawler(fetcher, extractor, DepthOptions{AllowCrossDomain: true})
//	tasks := crawler.Crawl(ctx, "https://example.com", 2)
//
// ## FullSiteCrawler
//
// 同主机广度优先爬取,每个URL经 RecoveryController 最多尝试3次,
// 失败之间冷却3秒,检测到验证码时暂停等待确认。
// 已访问的URL追加写入 sitemap.txt。
//
//	rc := NewRecoveryController(fetcher, RecoveryOptions{Resolver: ConsoleResolver{}})
//	crawler := NewFullSiteCrawler(rc, extractor, FullSiteOptions{
//	    PageDelay: time.Second,
//	    Sitemap:   NewSitemapLog("sitemap.txt"),
//	})
//	tasks := crawler.Crawl(ctx, "https://example.com")
//
// ## PaginationWalker
//
// 沿 cursor/hasMore 遍历分页接口,每个条目单独获取详情并解析为任务。
//
//	walker := NewPaginationWalker(source, resolver, parser, PaginationOptions{MaxPages: 1000})
//	tasks, err := walker.Walk(ctx, "username")
//
// # URL去重
//
// NormalizeURL 把URL规范为 https://<小写主机><去掉末尾斜杠的路径>,
// 查询参数和片段被丢弃。VisitedSet 和 Frontier 都按规范形式比较。
//
// # 并发安全
//
// 爬取本身是串行的。VisitedSet、Frontier、SitemapLog 和各爬取器的统计
// 都有锁保护,可以在进度回调中安全读取。
package crawlers
