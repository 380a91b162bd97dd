package crawlers

import (
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
)

func newStubGuard(available uint64, cpuUsage float64, memErr error) *ResourceGuard {
	g := NewResourceGuard(512, 80)
	g.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		if memErr != nil {
			return nil, memErr
		}
		return &mem.VirtualMemoryStat{Total: 8 << 30, Available: available}, nil
	}
	g.cpuPercent = func(time.Duration, bool) ([]float64, error) {
		return []float64{cpuUsage}, nil
	}
	return g
}

func TestResourceGuard_Check(t *testing.T) {
	tests := []struct {
		name     string
		avail    uint64
		memErr   error
		pressure string
		low      bool
	}{
		{"内存充足", 4 << 30, nil, "low", false},
		{"内存偏紧", 800 << 20, nil, "medium", false},
		{"内存不足", 100 << 20, nil, "high", true},
		{"读取失败", 0, errors.New("no /proc"), "low", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := newStubGuard(tt.avail, 10, tt.memErr).Check()
			assert.Equal(t, tt.pressure, status.MemoryPressure)
			assert.Equal(t, tt.low, status.Low())
			assert.Equal(t, uint64(512<<20), status.SafetyReserve)
		})
	}
}

func TestResourceGuard_CPU(t *testing.T) {
	status := newStubGuard(4<<30, 95.5, nil).Check()
	assert.InDelta(t, 95.5, status.CPUUsage, 0.001)
}
