package crawlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"golang.org/x/term"
)

// DefaultCaptchaMarker 页面文本中出现即视为验证码页面 (不区分大小写)
const DefaultCaptchaMarker = "captcha"

// ContainsCaptcha 检查页面可见文本是否包含验证码标记
// HTML无法解析时退回到对原始内容的匹配
func ContainsCaptcha(markup, marker string) bool {
	if marker == "" {
		marker = DefaultCaptchaMarker
	}
	marker = strings.ToLower(marker)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.Contains(strings.ToLower(markup), marker)
	}
	return strings.Contains(strings.ToLower(doc.Text()), marker)
}

// CaptchaResolver 等待外部确认验证码已处理
// 返回nil表示已确认,返回错误则放弃该URL
type CaptchaResolver interface {
	AwaitConfirmation(ctx context.Context, url string) error
}

// ConsoleResolver 在终端提示操作员,按回车继续
// 同一个实例的多次等待共用一个输入读取器,管道输入的每一行对应一次确认
type ConsoleResolver struct {
	In  io.Reader
	Out io.Writer

	once    sync.Once
	lines   chan struct{}
	readErr error
}

// NewConsoleResolver 使用标准输入输出
func NewConsoleResolver() *ConsoleResolver {
	return &ConsoleResolver{In: os.Stdin, Out: os.Stdout}
}

// start 启动唯一的读取协程,输入结束后关闭 lines
func (r *ConsoleResolver) start() {
	r.once.Do(func() {
		r.lines = make(chan struct{})
		go func() {
			defer close(r.lines)
			br := bufio.NewReader(r.In)
			for {
				line, err := br.ReadString('\n')
				if line != "" {
					r.lines <- struct{}{}
				}
				if err != nil {
					if err == io.EOF {
						err = fmt.Errorf("%w: 输入已关闭", ErrCaptchaUnresolved)
					}
					r.readErr = err
					return
				}
			}
		}()
	})
}

// AwaitConfirmation 阻塞直到读到一行输入或ctx取消
func (r *ConsoleResolver) AwaitConfirmation(ctx context.Context, url string) error {
	if f, ok := r.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		utils.Warnf("标准输入不是终端,验证码确认可能无法完成: %s", url)
	}
	r.start()

	fmt.Fprintf(r.Out, "\n🧩 检测到验证码: %s\n请在浏览器中完成验证后按回车继续...", url)

	select {
	case _, ok := <-r.lines:
		if !ok {
			return r.readErr
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChannelResolver 由程序调用 Confirm/Reject 完成确认,适用于服务模式或测试
type ChannelResolver struct {
	requests chan string
	answers  chan error
}

// NewChannelResolver 创建通道确认器
func NewChannelResolver() *ChannelResolver {
	return &ChannelResolver{
		requests: make(chan string, 1),
		answers:  make(chan error, 1),
	}
}

// Requests 正在等待确认的URL
func (r *ChannelResolver) Requests() <-chan string {
	return r.requests
}

// Confirm 确认当前(或下一次)等待
func (r *ChannelResolver) Confirm() {
	r.answer(nil)
}

// Reject 拒绝当前(或下一次)等待
func (r *ChannelResolver) Reject(reason error) {
	if reason == nil {
		reason = ErrCaptchaUnresolved
	}
	r.answer(reason)
}

func (r *ChannelResolver) answer(err error) {
	select {
	case r.answers <- err:
	default:
	}
}

// AwaitConfirmation 通知等待中的URL并阻塞到收到答复
func (r *ChannelResolver) AwaitConfirmation(ctx context.Context, url string) error {
	select {
	case r.requests <- url:
	default:
	}
	select {
	case err := <-r.answers:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AutoResolver 直接确认,用于无人值守运行
type AutoResolver struct{}

// AwaitConfirmation 记录警告后立即返回
func (AutoResolver) AwaitConfirmation(ctx context.Context, url string) error {
	utils.Warnf("🧩 检测到验证码,自动继续: %s", url)
	return nil
}

// NewCaptchaResolver 按名称创建: console, auto
func NewCaptchaResolver(name string) (CaptchaResolver, error) {
	switch strings.ToLower(name) {
	case "", "console":
		return NewConsoleResolver(), nil
	case "auto":
		return AutoResolver{}, nil
	}
	return nil, fmt.Errorf("未知的验证码处理方式: %s (可选: console, auto)", name)
}
