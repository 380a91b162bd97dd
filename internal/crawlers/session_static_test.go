package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHeaders http.Header

func (h staticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(h), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><img src="/a.png">` + r.Header.Get("X-Test") + `</body></html>`))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticSession(t *testing.T) {
	srv := newTestServer(t)
	session, err := NewBrowserSession("static", SessionOptions{
		Headers: staticHeaders{"X-Test": []string{"header-ok"}},
	})
	require.NoError(t, err)
	defer session.Close()
	ctx := context.Background()

	t.Run("加载前读取内容报错", func(t *testing.T) {
		_, err := session.Markup(ctx)
		assert.Error(t, err)
	})

	t.Run("读取页面并携带自定义头部", func(t *testing.T) {
		require.NoError(t, session.Navigate(ctx, srv.URL+"/page"))
		markup, err := session.Markup(ctx)
		require.NoError(t, err)
		assert.Contains(t, markup, `<img src="/a.png">`)
		assert.Contains(t, markup, "header-ok")
	})

	t.Run("重定向后返回最终URL", func(t *testing.T) {
		require.NoError(t, session.Navigate(ctx, srv.URL+"/old"))
		current, err := session.CurrentURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/page", current)
	})

	t.Run("HTTP错误", func(t *testing.T) {
		err := session.Navigate(ctx, srv.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("不支持脚本和截图", func(t *testing.T) {
		_, err := session.RunScript(ctx, scrollHeightJS)
		assert.ErrorIs(t, err, ErrUnsupported)
		_, err = session.Screenshot(ctx)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("关闭后不可导航", func(t *testing.T) {
		require.NoError(t, session.Close())
		assert.ErrorIs(t, session.Navigate(ctx, srv.URL+"/page"), ErrSessionClosed)
	})
}

func TestStaticSession_WithFetcher(t *testing.T) {
	srv := newTestServer(t)
	session, err := NewBrowserSession("static", SessionOptions{})
	require.NoError(t, err)
	defer session.Close()

	fetcher := NewFetcher(session, FetcherOptions{ScrollToBottom: true})
	page, err := fetcher.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.True(t, page.Redirected())
	assert.Equal(t, srv.URL+"/page", page.URL)

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing")
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestNewBrowserSession_UnknownDriver(t *testing.T) {
	_, err := NewBrowserSession("phantomjs", SessionOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = ParseDriverKind("firefox")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	kind, err := ParseDriverKind(" Chrome ")
	require.NoError(t, err)
	assert.Equal(t, "chrome", string(kind))
}

func TestDecodeBody(t *testing.T) {
	plain := []byte("<html>hello</html>")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(plain)
	gw.Close()

	var fl bytes.Buffer
	fw, _ := flate.NewWriter(&fl, flate.DefaultCompression)
	fw.Write(plain)
	fw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(plain)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"无编码", "", plain},
		{"gzip", "gzip", gz.Bytes()},
		{"gzip已被自动解压", "gzip", plain},
		{"deflate", "deflate", fl.Bytes()},
		{"brotli", "br", br.Bytes()},
		{"大小写不敏感", " BR ", br.Bytes()},
		{"未知编码原样返回", "zstd", plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, plain, decodeBody(tt.encoding, tt.body))
		})
	}
}
