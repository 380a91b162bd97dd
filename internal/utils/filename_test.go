package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"普通标题", "My Gallery", "My Gallery"},
		{"非法字符", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"换行和制表符", "line1\nline2\tend", "line1_line2_end"},
		{"末尾点和空格", "  title. . ", "title"},
		{"空字符串", "", ""},
		{"中文标题", "图片集: 夏天", "图片集_ 夏天"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "photo.jpg", FilenameFromURL("https://cdn.example.com/a/b/photo.jpg?size=large"))
	assert.Equal(t, "", FilenameFromURL("https://cdn.example.com/"))
	assert.Equal(t, "", FilenameFromURL("https://cdn.example.com"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com:8443", HostOf("https://example.com:8443/x"))
	assert.Equal(t, "example.com", HostOf("https://example.com/x"))
	assert.Equal(t, "", HostOf("://bad"))
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# 注释\nhttps://a.example.com\n\nnot-a-url\nhttp://b.example.com/page\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	urls, err := ReadURLsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "http://b.example.com/page"}, urls)
}

func TestReadURLsFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# 只有注释\n"), 0644))

	_, err := ReadURLsFromFile(path)
	assert.Error(t, err)
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\n# bob\n\n  carol  \n"), 0644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, lines)

	_, err = ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
