package sites

import (
	"errors"
	"testing"

	"github.com/RecoveryAshes/MediaCrawl/internal/crawlers"
	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneralExtractor_ExtractMedia(t *testing.T) {
	page := &models.Page{
		URL: "https://example.com/gallery/",
		Markup: `<html><head><title> Cats: best of 2024 </title></head><body>
			<a href="full/1.jpg">thumb</a>
			<a href="/post/2">https://cdn.example.com/2.png</a>
			<a href="/about">about</a>
			<img src="/img/3.gif">
			<img src="data:image/png;base64,AAAA">
			<img src="/img/3.gif">
			<img src="/pixel?id=7">
			<video src="https://cdn.example.com/4.mp4"></video>
			<video><source src="5.webm"></video>
		</body></html>`,
	}

	tasks, err := NewGeneralExtractor().ExtractMedia(page)
	require.NoError(t, err)

	label := "Cats_ best of 2024"
	assert.Equal(t, []models.Task{
		{MediaURL: "https://example.com/gallery/full/1.jpg", Label: label},
		{MediaURL: "https://cdn.example.com/2.png", Label: label},
		{MediaURL: "https://example.com/img/3.gif", Label: label},
		{MediaURL: "https://example.com/img/3.gif", Label: label},
		{MediaURL: "https://cdn.example.com/4.mp4", Label: label},
		{MediaURL: "https://example.com/gallery/5.webm", Label: label},
	}, tasks)
}

func TestGeneralExtractor_LabelFallsBackToHost(t *testing.T) {
	page := &models.Page{URL: "https://example.com/x", Markup: `<html><body><img src="a.png"></body></html>`}

	tasks, err := NewGeneralExtractor().ExtractMedia(page)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "example.com", tasks[0].Label)
}

func TestGeneralExtractor_EmptyPage(t *testing.T) {
	_, err := NewGeneralExtractor().ExtractMedia(&models.Page{URL: "https://example.com"})

	var extractErr *crawlers.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "https://example.com", extractErr.URL)
}

func TestGeneralExtractor_UsesEffectiveURL(t *testing.T) {
	page := &models.Page{
		RequestedURL: "https://example.com/old/",
		URL:          "https://example.com/new/",
		Markup:       `<html><body><img src="pic.jpg"></body></html>`,
	}

	tasks, err := NewGeneralExtractor().ExtractMedia(page)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new/pic.jpg", tasks[0].MediaURL)
}

func TestGeneralExtractor_MediaSelection(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"链接文字为媒体URL", `<a href="/post/2"> https://cdn.example.com/2.png </a>`, []string{"https://cdn.example.com/2.png"}},
		{"链接和文字都是媒体", `<a href="a.jpg">b.jpg</a>`, []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}},
		{"普通链接", `<a href="/about">about</a>`, nil},
		{"无扩展名的图片", `<img src="/pixel?id=1"><img src="/track">`, nil},
		{"无扩展名的视频", `<video src="/stream/9"></video>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &models.Page{URL: "https://example.com/", Markup: "<html><body>" + tt.markup + "</body></html>"}
			tasks, err := NewGeneralExtractor().ExtractMedia(page)
			require.NoError(t, err)

			var got []string
			for _, task := range tasks {
				got = append(got, task.MediaURL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
