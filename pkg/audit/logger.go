// Package audit provides structured audit logging for screening operations.
//
// Compliance teams typically need a durable trail of every screening
// decision. Events are written as JSON lines to a local file, buffered
// and flushed in the background, with size-based rotation to gzip
// archives.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/veriahq/sdk/pkg/screening"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Lifecycle events
	EventClientCreated EventType = "client_created"
	EventClientClosed  EventType = "client_closed"

	// Screening events
	EventScreenStarted   EventType = "screen_started"
	EventScreenCompleted EventType = "screen_completed"
	EventScreenBlocked   EventType = "screen_blocked"
	EventScreenFailed    EventType = "screen_failed"
)

// Severity represents log severity level.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARN"
	SeverityError   Severity = "ERROR"
)

// Event represents an audit event. One event is one line in the log.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Severity  Severity               `json:"severity"`
	RequestID string                 `json:"request_id,omitempty"`
	Input     string                 `json:"input,omitempty"`
	Risk      string                 `json:"risk,omitempty"`
	Score     int                    `json:"score,omitempty"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error,omitempty"`
	Duration  time.Duration          `json:"duration_ms,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LoggerConfig configures the audit logger.
type LoggerConfig struct {
	// LogFile is the path to the audit log file.
	// Default: ~/.veria/audit.log
	LogFile string

	// MaxSizeBytes is the maximum log file size before rotation.
	// Rotated files are gzip-compressed next to the live file.
	// Default: 100MB
	MaxSizeBytes int64

	// BufferSize is the number of events to buffer before flushing.
	// Default: 100
	BufferSize int

	// FlushInterval is how often to flush buffered events.
	// Default: 5 seconds
	FlushInterval time.Duration

	// Stdout enables console output of audit events.
	Stdout bool
}

// DefaultLoggerConfig returns sensible defaults.
func DefaultLoggerConfig() *LoggerConfig {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "/tmp"
	}

	return &LoggerConfig{
		LogFile:       filepath.Join(home, ".veria", "audit.log"),
		MaxSizeBytes:  100 * 1024 * 1024,
		BufferSize:    100,
		FlushInterval: 5 * time.Second,
	}
}

// Logger is the audit logger.
type Logger struct {
	config *LoggerConfig
	file   *os.File
	size   int64
	mu     sync.Mutex

	buffer   []Event
	bufferMu sync.Mutex

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewLogger creates a new audit logger.
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	// Apply defaults for zero values
	if config.LogFile == "" {
		config.LogFile = DefaultLoggerConfig().LogFile
	}
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = 100 * 1024 * 1024
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}

	dir := filepath.Dir(config.LogFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	// 0640 = owner read/write, group read
	file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	l := &Logger{
		config: config,
		file:   file,
		size:   info.Size(),
		buffer: make([]Event, 0, config.BufferSize),
		stopCh: make(chan struct{}),
	}

	return l, nil
}

// Start begins background flushing.
func (l *Logger) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.mu.Unlock()

	l.wg.Add(1)
	go l.flushLoop()
}

// Stop stops the logger and flushes remaining events.
func (l *Logger) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.Flush()
		return l.close()
	}
	l.running = false
	close(l.stopCh)
	l.mu.Unlock()

	l.wg.Wait()

	l.Flush()
	return l.close()
}

func (l *Logger) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Log records an audit event.
func (l *Logger) Log(event Event) {
	event.Timestamp = time.Now()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	l.bufferMu.Lock()
	l.buffer = append(l.buffer, event)
	shouldFlush := len(l.buffer) >= l.config.BufferSize
	l.bufferMu.Unlock()

	if l.config.Stdout {
		l.printEvent(event)
	}

	if shouldFlush {
		go l.Flush()
	}
}

// Convenience methods for common event types

// ClientCreated logs a client creation event.
func (l *Logger) ClientCreated(baseURL string) {
	l.Log(Event{
		Type:     EventClientCreated,
		Severity: SeverityInfo,
		Message:  "Screening client created",
		Details:  map[string]interface{}{"base_url": baseURL},
	})
}

// ClientClosed logs a client shutdown event.
func (l *Logger) ClientClosed() {
	l.Log(Event{
		Type:     EventClientClosed,
		Severity: SeverityInfo,
		Message:  "Screening client closed",
	})
}

// ScreenStarted logs the start of a screening call.
func (l *Logger) ScreenStarted(requestID, input string) {
	l.Log(Event{
		Type:      EventScreenStarted,
		Severity:  SeverityInfo,
		RequestID: requestID,
		Input:     input,
		Message:   "Screening started",
	})
}

// ScreenCompleted logs a successful screening result. Blocked results
// are logged as screen_blocked at warning severity so they stand out
// in the trail.
func (l *Logger) ScreenCompleted(requestID, input string, result *screening.ScreenResult, duration time.Duration) {
	event := Event{
		Type:      EventScreenCompleted,
		Severity:  SeverityInfo,
		RequestID: requestID,
		Input:     input,
		Risk:      result.Risk,
		Score:     result.Score,
		Message:   fmt.Sprintf("Screening completed: risk %s", result.Risk),
		Duration:  duration,
		Details: map[string]interface{}{
			"chain":         result.Chain,
			"resolved":      result.Resolved,
			"sanctions_hit": result.Details.SanctionsHit,
			"pep_hit":       result.Details.PEPHit,
			"watchlist_hit": result.Details.WatchlistHit,
		},
	}
	if result.ShouldBlock() {
		event.Type = EventScreenBlocked
		event.Severity = SeverityWarning
		event.Message = fmt.Sprintf("Screening blocked: risk %s", result.Risk)
	}
	l.Log(event)
}

// ScreenFailed logs a failed screening call.
func (l *Logger) ScreenFailed(requestID, input string, err error, duration time.Duration) {
	event := Event{
		Type:      EventScreenFailed,
		Severity:  SeverityError,
		RequestID: requestID,
		Input:     input,
		Message:   "Screening failed",
		Duration:  duration,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// Flush writes buffered events to disk, rotating first if the file
// has grown past the size limit.
func (l *Logger) Flush() {
	l.bufferMu.Lock()
	if len(l.buffer) == 0 {
		l.bufferMu.Unlock()
		return
	}
	events := l.buffer
	l.buffer = make([]Event, 0, l.config.BufferSize)
	l.bufferMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	if l.size >= l.config.MaxSizeBytes {
		if err := l.rotate(); err != nil {
			// Keep appending to the oversized file rather than drop events.
			fmt.Fprintf(os.Stderr, "audit: rotation failed: %v\n", err)
		}
	}

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		n, _ := l.file.Write(data)
		l.size += int64(n)
		n, _ = l.file.Write([]byte("\n"))
		l.size += int64(n)
	}

	_ = l.file.Sync()
}

// rotate compresses the current log file to a timestamped .gz archive
// and reopens a fresh file. Caller must hold l.mu.
func (l *Logger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	archive := fmt.Sprintf("%s.%s.gz", l.config.LogFile, time.Now().UTC().Format("20060102T150405"))
	if err := compressFile(l.config.LogFile, archive); err != nil {
		// Reopen for append so logging can continue.
		file, openErr := os.OpenFile(l.config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if openErr == nil {
			l.file = file
		}
		return err
	}

	if err := os.Remove(l.config.LogFile); err != nil {
		return fmt.Errorf("remove rotated file: %w", err)
	}

	file, err := os.OpenFile(l.config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("reopen log file: %w", err)
	}

	l.file = file
	l.size = 0
	return nil
}

// compressFile gzips src into dst.
func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Sync()
}

// flushLoop periodically flushes buffered events.
func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.Flush()
		}
	}
}

// printEvent prints an event to console in human-readable format.
func (l *Logger) printEvent(event Event) {
	timestamp := event.Timestamp.Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] [%s] %s: %s\n", timestamp, event.Severity, event.Type, event.Message)
	if event.Error != "" {
		fmt.Printf("  Error: %s\n", event.Error)
	}
}
