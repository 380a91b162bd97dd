package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/MediaCrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 输出目录管理: 报告、任务列表以及调试用的页面快照和截图
// 目录结构: <outputDir>/<label>/{reports,pages,screenshots}
type Reporter struct {
	outputDir string
	label     string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, label string) *Reporter {
	if label == "" {
		label = "default"
	}
	return &Reporter{
		outputDir: outputDir,
		label:     SanitizeFilename(label),
	}
}

// BaseDir 本次运行的输出目录
func (r *Reporter) BaseDir() string {
	return filepath.Join(r.outputDir, r.label)
}

// WriteReport 写入 crawl_report.json
func (r *Reporter) WriteReport(report *models.RunReport) error {
	report.OutputDir = r.BaseDir()
	path, err := r.saveJSON("reports", "crawl_report.json", report)
	if err != nil {
		return err
	}
	Infof("✅ 报告已生成: %s", path)
	return nil
}

// WriteTasks 写入 tasks.json
func (r *Reporter) WriteTasks(runID, seed string, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	list := &models.TaskList{RunID: runID, Seed: seed, Count: len(tasks), Tasks: tasks}
	path, err := r.saveJSON("reports", "tasks.json", list)
	if err != nil {
		return err
	}
	Infof("📝 任务列表已保存: %s (%d 个任务)", path, len(tasks))
	return nil
}

// SaveArtifact 保存调试产物 (页面HTML、截图等),返回文件路径
func (r *Reporter) SaveArtifact(kind, name string, data []byte) (string, error) {
	dir := filepath.Join(r.BaseDir(), kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}
	path := filepath.Join(dir, SanitizeFilename(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}
	Debugf("保存文件: %s", path)
	return path, nil
}

// saveJSON 保存JSON文件
func (r *Reporter) saveJSON(kind string, filename string, data interface{}) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}
	return r.SaveArtifact(kind, filename, jsonData)
}

// NewProgressBar 创建进度条, max 为 -1 时显示为不定长
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
