package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log formats. FormatAuto picks text on an interactive terminal and JSON
// otherwise.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatAuto = "auto"
)

// Config describes the desired logging configuration.
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	FilePath   string `json:"file_path,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxFiles   int    `json:"max_files,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// Manager owns the logger's level and output file.
type Manager struct {
	levelVar *slog.LevelVar
	format   string
	mu       sync.Mutex
	closer   io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and returns it along with a ready-to-use
// logger. Logs go to stderr so stdout stays free for command output.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	return newManager(cfg, os.Stderr, isTerminal(os.Stderr))
}

func newManager(cfg Config, console io.Writer, interactive bool) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	format := resolveFormat(cfg.Format, interactive)
	writer, closer := buildWriter(cfg, console)

	m := &Manager{levelVar: lvl, format: format, closer: closer}
	return m, slog.New(buildHandler(writer, lvl, format))
}

// SetLevel changes the level of every logger derived from the manager.
func (m *Manager) SetLevel(level string) {
	m.levelVar.Set(parseLevel(level))
}

// Format returns the effective output format.
func (m *Manager) Format() string { return m.format }

// Close releases the log file writer, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveFormat(format string, interactive bool) string {
	switch format {
	case FormatJSON, FormatText:
		return format
	}
	if interactive {
		return FormatText
	}
	return FormatJSON
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// buildWriter returns console, or console plus a rotated log file when a
// file path is configured. The closer is the file writer.
func buildWriter(cfg Config, console io.Writer) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return console, nil
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
		MaxBackups: positiveOr(cfg.MaxFiles, 3),
		MaxAge:     positiveOr(cfg.MaxAgeDays, 30),
	}
	return io.MultiWriter(console, lj), lj
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// buildHandler creates a slog.Handler with the given writer, leveler, and format.
func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	switch s {
	case FormatText, FormatJSON, FormatAuto:
		return true
	}
	return false
}

// String returns a human-readable summary of the config.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.MaxSizeMB, c.MaxFiles, c.MaxAgeDays)
	}
	return s
}
