package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records process and host resource gauges
type SystemMetrics struct {
	goRoutines     metric.Int64Gauge
	heapAlloc      metric.Int64Gauge
	memorySystem   metric.Int64Gauge
	hostMemoryUsed metric.Float64Gauge
	cpuUsage       metric.Float64Gauge
	processUptime  metric.Float64Gauge
	gcPause        metric.Float64Histogram
}

// NewSystemMetrics creates the system gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	var errs []error
	int64Gauge := func(name, desc, unit string) metric.Int64Gauge {
		g, err := meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return g
	}
	floatGauge := func(name, desc, unit string) metric.Float64Gauge {
		g, err := meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return g
	}

	sm := &SystemMetrics{
		goRoutines:     int64Gauge("system_goroutines", "Number of active goroutines", "{goroutine}"),
		heapAlloc:      int64Gauge("system_memory_usage_bytes", "Heap bytes allocated by the Go runtime", "By"),
		memorySystem:   int64Gauge("system_memory_system_bytes", "Memory obtained from the OS by the Go runtime", "By"),
		hostMemoryUsed: floatGauge("system_host_memory_used_percent", "Host memory in use", "%"),
		cpuUsage:       floatGauge("system_cpu_usage_percent", "Host CPU utilisation", "%"),
		processUptime:  floatGauge("system_process_uptime_seconds", "Process uptime in seconds", "s"),
	}

	pause, err := meter.Float64Histogram("system_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"))
	errs = append(errs, err)
	sm.gcPause = pause

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sm, nil
}

// SystemStats holds current system statistics
type SystemStats struct {
	GoRoutines        int64         `json:"goroutines"`
	HeapAlloc         int64         `json:"heap_alloc_bytes"`
	MemorySystem      int64         `json:"memory_system_bytes"`
	GCCount           uint32        `json:"gc_count"`
	LastGCPause       time.Duration `json:"last_gc_pause_ns"`
	CPUCount          int           `json:"cpu_count"`
	CPUUsage          float64       `json:"cpu_usage_percent"`
	HostMemoryTotal   uint64        `json:"host_memory_total_bytes"`
	HostMemoryUsedPct float64       `json:"host_memory_used_percent"`
	ProcessUptime     time.Duration `json:"uptime_ns"`
	Timestamp         time.Time     `json:"timestamp"`
}

// CollectSystemStats reads runtime and host statistics. Host readings that
// fail are left at zero.
func CollectSystemStats(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     int64(memStats.Alloc),
		MemorySystem:  int64(memStats.Sys),
		GCCount:       memStats.NumGC,
		LastGCPause:   time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now(),
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUUsage = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.HostMemoryTotal = vm.Total
		stats.HostMemoryUsedPct = vm.UsedPercent
	}

	return stats
}

// Collect gathers statistics and records them on the gauges
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	stats := CollectSystemStats(ctx, startTime)

	sm.goRoutines.Record(ctx, stats.GoRoutines)
	sm.heapAlloc.Record(ctx, stats.HeapAlloc)
	sm.memorySystem.Record(ctx, stats.MemorySystem)
	sm.cpuUsage.Record(ctx, stats.CPUUsage)
	sm.hostMemoryUsed.Record(ctx, stats.HostMemoryUsedPct)
	sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())
	if stats.LastGCPause > 0 {
		sm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// SystemMetricsCollector manages periodic system metrics collection
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewSystemMetricsCollector creates a new system metrics collector
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}

	return &SystemMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start collects on every tick until Stop is called or ctx is done
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	smc.metrics.Collect(ctx, smc.startTime)

	for {
		select {
		case <-ticker.C:
			smc.metrics.Collect(ctx, smc.startTime)
		case <-smc.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collection
func (smc *SystemMetricsCollector) Stop() {
	smc.stopOnce.Do(func() { close(smc.stopCh) })
}

// StartTime returns when the collector was created
func (smc *SystemMetricsCollector) StartTime() time.Time {
	return smc.startTime
}
