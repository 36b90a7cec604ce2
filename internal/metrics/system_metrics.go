package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MetricsManager owns the registry that the clinic specific collectors
// register into. The Go runtime collectors stay on the default registry.
type MetricsManager struct {
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec
	processRSS        prometheus.Gauge
	processOpenFDs    prometheus.Gauge

	registry *prometheus.Registry

	initialized bool
	mu          sync.RWMutex
}

var (
	instance *MetricsManager
	once     sync.Once
)

// GetInstance returns the singleton instance of MetricsManager
func GetInstance() *MetricsManager {
	once.Do(func() {
		instance = &MetricsManager{
			registry: prometheus.NewRegistry(),
		}
	})
	return instance
}

// Registry returns the manager registry.
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// InitializeMetrics registers the host metrics (thread-safe)
func (mm *MetricsManager) InitializeMetrics() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.initialized {
		return
	}

	mm.systemCPUUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clinic_system_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		},
		[]string{"core"},
	)

	mm.systemMemoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clinic_system_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		},
		[]string{"type"},
	)

	mm.processRSS = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_process_resident_memory_bytes",
			Help: "Resident memory of the API process in bytes",
		},
	)

	mm.processOpenFDs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_process_open_fds",
			Help: "Number of open file descriptors of the API process",
		},
	)

	mm.registry.MustRegister(
		mm.systemCPUUsage,
		mm.systemMemoryUsage,
		mm.processRSS,
		mm.processOpenFDs,
	)

	mm.initialized = true
}

// StartSystemMetrics collects host metrics every interval until ctx is done.
func StartSystemMetrics(ctx context.Context, interval time.Duration) {
	mm := GetInstance()
	mm.InitializeMetrics()

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("Process metrics unavailable")
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mm.collectSystemMetrics(ctx)
				mm.collectProcessMetrics(ctx, proc)
			}
		}
	}()
}

// collectSystemMetrics collects system-level metrics
func (mm *MetricsManager) collectSystemMetrics(ctx context.Context) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	if cpuPercentages, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		for i, percentage := range cpuPercentages {
			mm.systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	if vmstat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		mm.systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		mm.systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		mm.systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
		mm.systemMemoryUsage.WithLabelValues("free").Set(float64(vmstat.Free))
	}
}

func (mm *MetricsManager) collectProcessMetrics(ctx context.Context, proc *process.Process) {
	if proc == nil {
		return
	}

	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
		mm.processRSS.Set(float64(memInfo.RSS))
	}
	// Not supported on every platform.
	if fds, err := proc.NumFDsWithContext(ctx); err == nil {
		mm.processOpenFDs.Set(float64(fds))
	}
}
