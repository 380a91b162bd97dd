package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
)

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		expectError bool
	}{
		{"合法头部", "User-Agent", "Mozilla/5.0", false},
		{"合法名称-数字", "X-Request-ID-123", "1", false},
		{"合法值-空字符串", "X-Empty", "", false},
		{"合法值-长字符串", "X-Long", strings.Repeat(" ", 8000), false},
		{"非法名称-空格", "User Agent", "v", true},
		{"非法名称-下划线", "User_Agent", "v", true},
		{"非法名称-空字符串", "", "v", true},
		{"非法值-超长", "X-TooLong", strings.Repeat("a", MaxHeaderValueLength+1), true},
		{"非法值-控制字符", "X-Bad", "value\x00with\x01null", true},
		{"非法值-非ASCII", "X-Lang", "中文", true},
		{"禁止头部-Host", "Host", "example.com", true},
		{"禁止头部-小写", "content-length", "10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.headerName, tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
			if err != nil {
				var vErr *models.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("错误类型应为 ValidationError: %T", err)
				}
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	ok := http.Header{"User-Agent": {"Bot/1.0"}, "Accept": {"*/*"}}
	if err := validator.Validate(ok); err != nil {
		t.Errorf("合法头部集合不应报错: %v", err)
	}

	bad := http.Header{"User-Agent": {"Bot/1.0"}, "Connection": {"close"}}
	if err := validator.Validate(bad); err == nil {
		t.Error("包含禁止头部时应报错")
	}
}

func TestHeaderRedactor(t *testing.T) {
	redactor := NewHeaderRedactor()

	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"普通头部不脱敏", "User-Agent", "Mozilla/5.0", "Mozilla/5.0"},
		{"Bearer令牌", "Authorization", "Bearer abcdefghijk", "Bearer ***"},
		{"长密钥保留首尾", "X-Api-Key", "1234567890abcdef", "1234***cdef"},
		{"短密钥完全隐藏", "X-Token", "short", "***"},
		{"Cookie", "Cookie", "sessionid=abcdef123456", "sess***3456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactor.RedactHeaderValue(tt.header, tt.value); got != tt.want {
				t.Errorf("RedactHeaderValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderRedactor_RedactToString(t *testing.T) {
	redactor := NewHeaderRedactor()
	headers := http.Header{"X-B": {"2"}, "X-A": {"1"}, "Authorization": {"Bearer x"}}

	got := redactor.RedactToString(headers)
	want := "Authorization: Bearer ***, X-A: 1, X-B: 2"
	if got != want {
		t.Errorf("RedactToString() = %q, want %q", got, want)
	}
}
