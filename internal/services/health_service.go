package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"camelsrating/internal/config"
	"camelsrating/internal/infrastructure"
	"camelsrating/pkg/contracts"
)

// ClientCounter reports connected live-update clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	ratings   *RatingService
	clients   ClientCounter
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64                     `json:"uptime_seconds"`
	ReportFiles      int                         `json:"report_files"`
	ReportSizeBytes  int64                       `json:"report_size_bytes"`
	WebSocketClients int                         `json:"websocket_clients"`
	CachedResults    int                         `json:"cached_results"`
	Scheme           string                      `json:"scheme"`
	Host             *infrastructure.SystemStats `json:"host"`
}

// NewHealthService creates a health service. clients may be nil when no
// WebSocket hub is running.
func NewHealthService(ratings *RatingService, clients ClientCounter, paths *config.Paths, logger *slog.Logger) *HealthService {
	logger = infrastructure.WithComponent(logger, "health_service")
	version := contracts.GetVersionInfo()

	logger.Info("HealthService initialized",
		slog.String("version", version.Version),
		slog.String("build_time", version.BuildTime),
		slog.String("git_commit", version.GitCommit))

	return &HealthService{
		version:   version,
		ratings:   ratings,
		clients:   clients,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck reports whether the engine, the live-update hub and the
// reports directory are usable
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services: map[string]ServiceHealth{
			"engine":    hs.checkEngineHealth(),
			"websocket": hs.checkWebSocketHealth(),
			"reports":   hs.checkReportsHealth(),
		},
	}

	for name, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "Service not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return hs.version
}

// StartTime returns when the service was created
func (hs *HealthService) StartTime() time.Time {
	return hs.startTime
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Host:          infrastructure.CollectSystemStats(ctx, hs.startTime),
	}

	if hs.paths != nil {
		filepath.Walk(hs.paths.ReportsDir, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				stats.ReportFiles++
				stats.ReportSizeBytes += info.Size()
			}
			return nil
		})
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	if hs.ratings != nil {
		stats.CachedResults = hs.ratings.CacheLen()
		stats.Scheme = hs.ratings.Scheme().Name
	}
	return stats
}

func (hs *HealthService) checkEngineHealth() ServiceHealth {
	if hs.ratings == nil {
		return ServiceHealth{Status: "not_ready", Message: "rating engine not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("scheme %q loaded", hs.ratings.Scheme().Name),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "not_ready", Message: "WebSocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.clients.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkReportsHealth verifies the reports directory accepts writes
func (hs *HealthService) checkReportsHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not configured"}
	}
	dir := hs.paths.ReportsDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("cannot create reports directory: %v", err),
		}
	}

	tmp, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("cannot write to reports directory: %v", err),
		}
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return ServiceHealth{Status: "ready", Message: "reports directory is writable"}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"version":   hs.version,
		"stats":     hs.SystemStats(ctx),
	}
}
