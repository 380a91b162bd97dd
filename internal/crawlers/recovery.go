package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/rs/zerolog/log"
)

// RecoveryState 重试状态机的状态
type RecoveryState int

const (
	StateFetching             RecoveryState = iota // 正在抓取
	StateAwaitingConfirmation                      // 等待验证码确认
	StateCoolingDown                               // 失败后冷却
	StateSucceeded                                 // 成功
	StateAbandoned                                 // 放弃
)

func (s RecoveryState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateCoolingDown:
		return "cooling_down"
	case StateSucceeded:
		return "succeeded"
	case StateAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ArtifactSink 保存截图等调试产物
type ArtifactSink interface {
	SaveArtifact(kind, name string, data []byte) (string, error)
}

// Screenshotter 能截图的会话
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// RecoveryOptions 重试配置
type RecoveryOptions struct {
	MaxAttempts   int             // 默认3
	Backoff       BackoffStrategy // 默认固定3秒
	CaptchaMarker string
	Resolver      CaptchaResolver // 默认 AutoResolver
	Screenshotter Screenshotter   // 检测到验证码时截图,可为nil
	Artifacts     ArtifactSink    // 截图保存位置,可为nil
	OnStateChange func(url string, state RecoveryState, attempt int)
	Sleep         Sleeper
}

// RecoveryStats 重试统计
type RecoveryStats struct {
	Attempts      int
	Failures      int
	CaptchaPauses int
	Abandoned     int
}

// RecoveryController 对单次页面抓取做有限次重试和验证码暂停
type RecoveryController struct {
	fetcher PageFetcher
	opts    RecoveryOptions

	mu    sync.Mutex
	stats RecoveryStats
}

// DefaultMaxAttempts 默认最大尝试次数
const DefaultMaxAttempts = 3

// DefaultCooldown 默认失败冷却时间
const DefaultCooldown = 3 * time.Second

// NewRecoveryController 创建重试控制器
func NewRecoveryController(fetcher PageFetcher, opts RecoveryOptions) *RecoveryController {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff == nil {
		opts.Backoff = ConstantBackoff{Delay: DefaultCooldown}
	}
	if opts.Resolver == nil {
		opts.Resolver = AutoResolver{}
	}
	if opts.CaptchaMarker == "" {
		opts.CaptchaMarker = DefaultCaptchaMarker
	}
	if opts.Sleep == nil {
		opts.Sleep = Wait
	}
	return &RecoveryController{fetcher: fetcher, opts: opts}
}

// MaxAttempts 最大尝试次数
func (rc *RecoveryController) MaxAttempts() int {
	return rc.opts.MaxAttempts
}

// Stats 累计统计
func (rc *RecoveryController) Stats() RecoveryStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stats
}

// Fetch 抓取页面,失败时冷却后重试
// 所有尝试失败后返回包装了 ErrRetriesExhausted 和最后一个 FetchError 的错误
func (rc *RecoveryController) Fetch(ctx context.Context, url string) (*models.Page, error) {
	var lastErr error

	for attempt := 1; attempt <= rc.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rc.transition(url, StateFetching, attempt)
		rc.count(func(s *RecoveryStats) { s.Attempts++ })

		page, err := rc.fetcher.Fetch(ctx, url)
		if err == nil {
			if ContainsCaptcha(page.Markup, rc.opts.CaptchaMarker) {
				page, err = rc.awaitCaptcha(ctx, url, page, attempt)
				if err != nil {
					rc.abandon(url, attempt)
					return nil, err
				}
			}
			rc.transition(url, StateSucceeded, attempt)
			return page, nil
		}

		lastErr = err
		rc.count(func(s *RecoveryStats) { s.Failures++ })
		log.Warn().Err(err).Str("url", url).Msgf("⚠️  第%d/%d次抓取失败", attempt, rc.opts.MaxAttempts)

		if attempt == rc.opts.MaxAttempts {
			break
		}

		rc.transition(url, StateCoolingDown, attempt)
		if err := rc.opts.Sleep(ctx, rc.opts.Backoff.NextDelay(attempt)); err != nil {
			return nil, err
		}
	}

	rc.abandon(url, rc.opts.MaxAttempts)
	return nil, fmt.Errorf("%w (%d次): %w", ErrRetriesExhausted, rc.opts.MaxAttempts, lastErr)
}

// awaitCaptcha 进入等待确认状态,确认后重新读取页面
func (rc *RecoveryController) awaitCaptcha(ctx context.Context, url string, page *models.Page, attempt int) (*models.Page, error) {
	rc.transition(url, StateAwaitingConfirmation, attempt)
	rc.count(func(s *RecoveryStats) { s.CaptchaPauses++ })
	utils.Warnf("🧩 页面疑似验证码,等待确认: %s", url)

	rc.captureScreenshot(ctx, page)

	if err := rc.opts.Resolver.AwaitConfirmation(ctx, url); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCaptchaUnresolved, url, err)
	}

	refreshed, err := rc.fetcher.Refresh(ctx, url)
	if err != nil {
		utils.Warnf("验证码确认后重新读取失败,使用原页面: %v", err)
		return page, nil
	}
	return refreshed, nil
}

func (rc *RecoveryController) captureScreenshot(ctx context.Context, page *models.Page) {
	if rc.opts.Screenshotter == nil || rc.opts.Artifacts == nil {
		return
	}
	shot, err := rc.opts.Screenshotter.Screenshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			utils.Debugf("验证码截图失败: %v", err)
		}
		return
	}
	name := fmt.Sprintf("captcha_%d.png", page.FetchedAt.UnixNano())
	if path, err := rc.opts.Artifacts.SaveArtifact("screenshots", name, shot); err == nil {
		utils.Infof("📸 验证码截图已保存: %s", path)
	}
}

func (rc *RecoveryController) abandon(url string, attempt int) {
	rc.count(func(s *RecoveryStats) { s.Abandoned++ })
	rc.transition(url, StateAbandoned, attempt)
}

func (rc *RecoveryController) transition(url string, state RecoveryState, attempt int) {
	log.Debug().Str("url", url).Str("state", state.String()).Int("attempt", attempt).Msg("重试状态")
	if rc.opts.OnStateChange != nil {
		rc.opts.OnStateChange(url, state, attempt)
	}
}

func (rc *RecoveryController) count(f func(*RecoveryStats)) {
	rc.mu.Lock()
	f(&rc.stats)
	rc.mu.Unlock()
}
