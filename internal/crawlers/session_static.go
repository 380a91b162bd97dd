package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// staticSession 基于Colly的会话,只做HTTP请求,不执行JavaScript
type staticSession struct {
	collector *colly.Collector

	mu      sync.Mutex
	markup  string
	current string
	lastErr error
	closed  bool
}

func newStaticSession(opts SessionOptions) (*staticSession, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: opts.Timeout,
	}

	// 同一URL可能在验证码确认后被重新读取
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetClient(httpClient)
	c.SetRequestTimeout(opts.Timeout)

	s := &staticSession{collector: c}
	headers := resolveHeaders(opts.Headers)

	c.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body := decodeBody(r.Headers.Get("Content-Encoding"), r.Body)
		s.mu.Lock()
		s.markup = string(body)
		s.current = r.Request.URL.String()
		s.mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		s.mu.Lock()
		s.lastErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
		s.mu.Unlock()
	})

	return s, nil
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastErr = nil
	s.mu.Unlock()

	err := s.collector.Visit(url)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return s.lastErr
	}
	return err
}

func (s *staticSession) Markup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return "", fmt.Errorf("尚未加载任何页面")
	}
	return s.markup, nil
}

func (s *staticSession) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *staticSession) RunScript(ctx context.Context, script string) (any, error) {
	return nil, ErrUnsupported
}

func (s *staticSession) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}

func (s *staticSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// decodeBody 按Content-Encoding解压响应体,支持 gzip, deflate, br
// 解压失败时(如Colly已自动解压gzip)返回原始内容
func decodeBody(contentEncoding string, body []byte) []byte {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	var reader io.Reader
	switch encoding {
	case "":
		return body
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return body
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(bytes.NewReader(body))
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		utils.Debugf("%s解压失败,使用原始内容: %v", encoding, err)
		return body
	}
	return decoded
}
