package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths.
// Directory structure below the base directory:
//
//	data/
//	  input/    (institution workbooks and CSV files)
//	  reports/  (rating exports)
//	  schemes/  (threshold and weight files)
//	logs/
type Paths struct {
	BaseDir    string
	DataDir    string
	InputDir   string
	ReportsDir string
	SchemesDir string
	LogsDir    string

	CredentialsFile string
}

// NewPaths lays out the application directories below base
func NewPaths(base string) *Paths {
	p := &Paths{
		BaseDir:         base,
		LogsDir:         filepath.Join(base, DefaultLogsDir),
		CredentialsFile: filepath.Join(base, "credentials.json"),
	}
	p.SetDataDir(filepath.Join(base, DefaultDataDir))
	return p
}

// SetDataDir moves the data directory and every directory below it
func (p *Paths) SetDataDir(dir string) {
	p.DataDir = dir
	p.InputDir = filepath.Join(dir, "input")
	p.ReportsDir = filepath.Join(dir, "reports")
	p.SchemesDir = filepath.Join(dir, "schemes")
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.InputDir,
		p.ReportsDir,
		p.SchemesDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetInputPath returns the path for an input file
func (p *Paths) GetInputPath(filename string) string {
	return filepath.Join(p.InputDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetSchemePath returns the path for a scheme file
func (p *Paths) GetSchemePath(filename string) string {
	return filepath.Join(p.SchemesDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// ResolveLogFile places a relative log file name in the logs directory.
// Absolute paths are kept.
func (p *Paths) ResolveLogFile(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return p.GetLogPath(filepath.Base(name))
}

// GetRunReportPath returns a timestamped report path in the reports
// directory, e.g. camels_ratings_20240115_093000.xlsx. An empty ext leaves
// the name open for per-format suffixes.
func (p *Paths) GetRunReportPath(kind, ext string, at time.Time) string {
	if ext != "" {
		ext = "." + strings.TrimPrefix(ext, ".")
	}
	filename := fmt.Sprintf("camels_%s_%s%s", kind, at.Format("20060102_150405"), ext)
	return filepath.Join(p.ReportsDir, filename)
}

// ResolveSchemeFile finds a scheme file given as an absolute path, a path
// relative to the working directory or a name inside the schemes directory
func (p *Paths) ResolveSchemeFile(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if filepath.IsAbs(name) || FileExists(name) {
		return name, nil
	}
	candidate := p.GetSchemePath(name)
	if FileExists(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("scheme file %q not found", name)
}

// LogPathResolution logs the resolved directories for debugging
func (p *Paths) LogPathResolution() {
	slog.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("input", p.InputDir),
			slog.String("reports", p.ReportsDir),
			slog.String("schemes", p.SchemesDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("config_files",
			slog.String("credentials", p.CredentialsFile),
			slog.Bool("credentials_exists", FileExists(p.CredentialsFile)),
		))
}
