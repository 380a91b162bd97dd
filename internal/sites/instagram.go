package sites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	// InstagramBaseURL 站点根地址
	InstagramBaseURL = "https://www.instagram.com/"
	// DefaultQueryHash 用户时间线的 graphql 查询
	DefaultQueryHash = "472f257a40c653c64c666ce877d59d2b"
	// DefaultPageSize 每批条目数
	DefaultPageSize = 12
)

// PageGetter 按URL获取页面, crawlers.Fetcher 和 crawlers.RecoveryController 都满足
type PageGetter interface {
	Fetch(ctx context.Context, url string) (*models.Page, error)
}

// InstagramOptions 接口参数
type InstagramOptions struct {
	BaseURL   string // 测试时指向本地服务
	QueryHash string
	PageSize  int
}

func (o InstagramOptions) withDefaults() InstagramOptions {
	if o.BaseURL == "" {
		o.BaseURL = InstagramBaseURL
	}
	if !strings.HasSuffix(o.BaseURL, "/") {
		o.BaseURL += "/"
	}
	if o.QueryHash == "" {
		o.QueryHash = DefaultQueryHash
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// timeline edge_owner_to_timeline_media 结构
type timeline struct {
	Count    int `json:"count"`
	PageInfo *struct {
		HasNextPage bool   `json:"has_next_page"`
		EndCursor   string `json:"end_cursor"`
	} `json:"page_info"`
	Edges []struct {
		Node json.RawMessage `json:"node"`
	} `json:"edges"`
}

type timelineUser struct {
	ID       string    `json:"id"`
	Timeline *timeline `json:"edge_owner_to_timeline_media"`
}

// InstagramSource 用户时间线的分页来源
// 第一批来自用户主页的JSON,之后按游标请求 graphql 接口
type InstagramSource struct {
	pages    PageGetter
	username string
	opts     InstagramOptions

	userID string
	total  int
	page   int
}

// NewInstagramSource 创建时间线来源
func NewInstagramSource(pages PageGetter, username string, opts InstagramOptions) *InstagramSource {
	return &InstagramSource{
		pages:    pages,
		username: strings.Trim(username, "/ "),
		opts:     opts.withDefaults(),
	}
}

// ProfileURL 用户主页JSON地址
func (s *InstagramSource) ProfileURL() string {
	return s.opts.BaseURL + url.PathEscape(s.username) + "/?__a=1"
}

// QueryURL 第 after 游标之后一批的 graphql 地址
func (s *InstagramSource) QueryURL(after string) string {
	variables, _ := json.Marshal(struct {
		ID    string `json:"id"`
		First int    `json:"first"`
		After string `json:"after"`
	}{s.userID, s.opts.PageSize, after})

	q := url.Values{}
	q.Set("query_hash", s.opts.QueryHash)
	q.Set("variables", string(variables))
	return s.opts.BaseURL + "graphql/query/?" + q.Encode()
}

// Total 时间线条目总数 (第一批之后可用)
func (s *InstagramSource) Total() int {
	return s.total
}

// FetchBatch 实现 crawlers.BatchSource
func (s *InstagramSource) FetchBatch(ctx context.Context, cursor models.PageCursor) (*models.Batch, error) {
	first := cursor.Token == ""
	target := s.ProfileURL()
	if !first {
		if s.userID == "" {
			return nil, &crawlers.PaginationError{Page: s.page + 1, Cause: errors.New("缺少用户ID,无法请求下一页")}
		}
		target = s.QueryURL(cursor.Token)
	}
	s.page++

	page, err := s.pages.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	raw, err := ReadJSON(page.Markup)
	if err != nil {
		return nil, &crawlers.PaginationError{Page: s.page, Raw: []byte(page.Markup), Cause: err}
	}

	var user *timelineUser
	if first {
		var payload struct {
			GraphQL struct {
				User *timelineUser `json:"user"`
			} `json:"graphql"`
		}
		err = json.Unmarshal(raw, &payload)
		user = payload.GraphQL.User
	} else {
		var payload struct {
			Data struct {
				User *timelineUser `json:"user"`
			} `json:"data"`
		}
		err = json.Unmarshal(raw, &payload)
		user = payload.Data.User
	}
	if err != nil {
		return nil, &crawlers.PaginationError{Page: s.page, Raw: raw, Cause: fmt.Errorf("解析JSON失败: %w", err)}
	}
	if user == nil || user.Timeline == nil || user.Timeline.PageInfo == nil {
		return nil, &crawlers.PaginationError{Page: s.page, Raw: raw, Cause: errors.New("缺少 edge_owner_to_timeline_media.page_info")}
	}

	if first {
		if user.ID == "" {
			return nil, &crawlers.PaginationError{Page: s.page, Raw: raw, Cause: errors.New("缺少用户ID")}
		}
		s.userID = user.ID
		s.total = user.Timeline.Count
		utils.Infof("👤 %s: 共 %d 个帖子", s.username, s.total)
	}

	batch := &models.Batch{
		Raw: raw,
		Cursor: models.PageCursor{
			Token:   user.Timeline.PageInfo.EndCursor,
			HasMore: user.Timeline.PageInfo.HasNextPage,
		},
	}
	for _, edge := range user.Timeline.Edges {
		var node struct {
			ID        string `json:"id"`
			Shortcode string `json:"shortcode"`
		}
		if err := json.Unmarshal(edge.Node, &node); err != nil {
			log.Debug().Err(err).Msg("跳过无法解析的条目")
			continue
		}
		batch.Items = append(batch.Items, models.Item{ID: node.ID, Code: node.Shortcode, Raw: edge.Node})
	}
	return batch, nil
}

// InstagramResolver 获取帖子详情
type InstagramResolver struct {
	pages PageGetter
	opts  InstagramOptions
}

// NewInstagramResolver 创建详情解析器
func NewInstagramResolver(pages PageGetter, opts InstagramOptions) *InstagramResolver {
	return &InstagramResolver{pages: pages, opts: opts.withDefaults()}
}

// ResolveItem 实现 crawlers.ItemResolver,返回 shortcode_media 节点
func (r *InstagramResolver) ResolveItem(ctx context.Context, item models.Item) (json.RawMessage, error) {
	if item.Code == "" {
		return nil, errors.New("条目缺少 shortcode")
	}
	page, err := r.pages.Fetch(ctx, r.opts.BaseURL+"p/"+url.PathEscape(item.Code)+"/?__a=1")
	if err != nil {
		return nil, err
	}
	raw, err := ReadJSON(page.Markup)
	if err != nil {
		return nil, err
	}

	var payload struct {
		GraphQL struct {
			Media json.RawMessage `json:"shortcode_media"`
		} `json:"graphql"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("解析帖子详情失败: %w", err)
	}
	if len(payload.GraphQL.Media) == 0 || string(payload.GraphQL.Media) == "null" {
		return nil, errors.New("帖子详情缺少 shortcode_media")
	}
	return payload.GraphQL.Media, nil
}

// mediaNode 帖子或轮播子项
type mediaNode struct {
	Typename   string `json:"__typename"`
	IsVideo    bool   `json:"is_video"`
	VideoURL   string `json:"video_url"`
	DisplayURL string `json:"display_url"`
	Children   *struct {
		Edges []struct {
			Node mediaNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

// InstagramParser 把帖子节点解析为任务
type InstagramParser struct{}

// ParseItem 实现 crawlers.ItemParser
// 轮播帖 (GraphSidecar) 每个子项一个任务; 视频取 video_url, 图片取 display_url
func (InstagramParser) ParseItem(detail json.RawMessage, label string) ([]models.Task, error) {
	var node mediaNode
	if err := json.Unmarshal(detail, &node); err != nil {
		return nil, fmt.Errorf("解析帖子节点失败: %w", err)
	}

	nodes := []mediaNode{node}
	if node.Typename == "GraphSidecar" && node.Children != nil {
		nodes = nodes[:0]
		for _, edge := range node.Children.Edges {
			nodes = append(nodes, edge.Node)
		}
	}

	var tasks []models.Task
	for _, n := range nodes {
		mediaURL := n.DisplayURL
		if n.IsVideo && n.VideoURL != "" {
			mediaURL = n.VideoURL
		}
		if mediaURL == "" {
			continue
		}
		tasks = append(tasks, models.Task{
			MediaURL:     mediaURL,
			Label:        label,
			FilenameHint: utils.FilenameFromURL(mediaURL),
		})
	}
	if len(tasks) == 0 {
		return nil, errors.New("帖子中没有可用的媒体地址")
	}
	return tasks, nil
}

// ReadJSON 取页面中的JSON: 浏览器展示JSON时包在 <pre> 中,静态驱动得到原始响应体
func ReadJSON(markup string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(markup)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed), nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("解析页面失败: %w", err)
	}
	text := strings.TrimSpace(doc.Find("pre").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.New("页面中没有有效的JSON")
	}
	return json.RawMessage(text), nil
}
