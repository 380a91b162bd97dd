package crawlers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStatus 启动浏览器前采样的系统资源
type MemoryStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 可用内存(字节)
	SafetyReserve   uint64  // 安全保留内存(字节)
	CPUUsage        float64 // CPU使用率(%)
	MemoryPressure  string  // 内存压力等级: low/medium/high
}

// Low 可用内存是否低于安全保留
func (s MemoryStatus) Low() bool {
	return s.AvailableMemory < s.SafetyReserve
}

// ResourceGuard 启动浏览器前检查内存和CPU,只告警不阻止
type ResourceGuard struct {
	reserve      uint64
	cpuThreshold float64

	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
}

// NewResourceGuard 创建资源检查器
// reserveMB 默认512, cpuThreshold 默认80
func NewResourceGuard(reserveMB int, cpuThreshold float64) *ResourceGuard {
	if reserveMB <= 0 {
		reserveMB = 512
	}
	if cpuThreshold <= 0 {
		cpuThreshold = 80
	}
	return &ResourceGuard{
		reserve:       uint64(reserveMB) * 1024 * 1024,
		cpuThreshold:  cpuThreshold,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    cpu.Percent,
	}
}

// Check 采样一次系统资源并记录日志
func (g *ResourceGuard) Check() MemoryStatus {
	status := MemoryStatus{SafetyReserve: g.reserve, MemoryPressure: "low"}

	vm, err := g.virtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败")
	} else {
		status.TotalMemory = vm.Total
		status.AvailableMemory = vm.Available
		switch {
		case vm.Available < g.reserve:
			status.MemoryPressure = "high"
		case vm.Available < g.reserve*2:
			status.MemoryPressure = "medium"
		}
	}

	// 100毫秒采样,所有CPU平均
	if percents, err := g.cpuPercent(100*time.Millisecond, false); err != nil {
		log.Debug().Err(err).Msg("获取CPU使用率失败")
	} else if len(percents) > 0 {
		status.CPUUsage = percents[0]
	}

	log.Debug().
		Str("total", formatGB(status.TotalMemory)).
		Str("available", formatGB(status.AvailableMemory)).
		Float64("cpu", status.CPUUsage).
		Str("pressure", status.MemoryPressure).
		Msg("系统资源")

	if err == nil && status.Low() {
		log.Warn().Msgf("⚠️  可用内存不足: %s (安全保留 %s), 浏览器可能不稳定",
			formatGB(status.AvailableMemory), formatGB(status.SafetyReserve))
	}
	if status.CPUUsage > g.cpuThreshold {
		log.Warn().Msgf("⚠️  CPU负载过高: %.1f%% (阈值 %.0f%%)", status.CPUUsage, g.cpuThreshold)
	}
	return status
}

func formatGB(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/(1024*1024*1024))
}
