package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/RecoveryAshes/MediaCrawl/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile 默认头部配置文件路径
	DefaultConfigFile = "configs/headers.yaml"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// Template 内置的头部配置模板
func Template() string {
	return defaultHeaderTemplate
}

// HeaderConfigLoader 读取 headers.yaml
type HeaderConfigLoader struct {
	configPath string
}

// NewHeaderConfigLoader 创建加载器, configPath 为空时使用 configs/headers.yaml
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{configPath: configPath}
}

// Path 配置文件路径
func (l *HeaderConfigLoader) Path() string {
	return l.configPath
}

// EnsureConfigExists 配置文件不存在时写入模板
func (l *HeaderConfigLoader) EnsureConfigExists() error {
	if _, err := os.Stat(l.configPath); !os.IsNotExist(err) {
		return nil
	}

	dir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}
	if err := os.WriteFile(l.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", l.configPath, err)
	}
	utils.Infof("📝 已生成头部配置模板: %s", l.configPath)
	return nil
}

// checkSize 配置文件不能超过 MaxConfigFileSize
func (l *HeaderConfigLoader) checkSize() error {
	info, err := os.Stat(l.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", l.configPath, err)
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// LoadConfig 读取并解析头部配置
// 文件不存在时先生成模板; 文件被锁定时退回空配置
func (l *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := l.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := l.checkSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("配置文件被锁定 [%s], 使用默认头部", l.configPath)
			return &models.HeaderConfig{Headers: map[string]string{}}, nil
		}
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
	}

	var cfg models.HeaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: fmt.Errorf("配置绑定失败: %w", err)}
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return &cfg, nil
}
