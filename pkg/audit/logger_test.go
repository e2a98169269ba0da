package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/veriahq/sdk/pkg/screening"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()

	logFile := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(&LoggerConfig{
		LogFile:       logFile,
		BufferSize:    100,
		FlushInterval: time.Hour, // flush manually in tests
	})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return l, logFile
}

func readEvents(t *testing.T, logFile string) []Event {
	t.Helper()

	f, err := os.Open(logFile)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal event line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	return events
}

func TestLogger_WritesJSONLines(t *testing.T) {
	l, logFile := newTestLogger(t)

	l.Log(Event{
		Type:      EventScreenStarted,
		Severity:  SeverityInfo,
		RequestID: "req-1",
		Input:     "vitalik.eth",
		Message:   "Screening started",
	})
	l.Flush()

	events := readEvents(t, logFile)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventScreenStarted {
		t.Errorf("Type = %q, want %q", e.Type, EventScreenStarted)
	}
	if e.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", e.RequestID)
	}
	if e.ID == "" {
		t.Error("event ID should be assigned")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestLogger_ScreenCompleted(t *testing.T) {
	tests := []struct {
		name         string
		result       *screening.ScreenResult
		wantType     EventType
		wantSeverity Severity
	}{
		{
			name: "clean result",
			result: &screening.ScreenResult{
				Score: 5,
				Risk:  screening.RiskLow,
				Chain: "ethereum",
			},
			wantType:     EventScreenCompleted,
			wantSeverity: SeverityInfo,
		},
		{
			name: "blocked result",
			result: &screening.ScreenResult{
				Score:   92,
				Risk:    screening.RiskCritical,
				Chain:   "ethereum",
				Details: screening.ScreenDetails{SanctionsHit: true},
			},
			wantType:     EventScreenBlocked,
			wantSeverity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, logFile := newTestLogger(t)

			l.ScreenCompleted("req-1", "0xabc", tt.result, 120*time.Millisecond)
			l.Flush()

			events := readEvents(t, logFile)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Type != tt.wantType {
				t.Errorf("Type = %q, want %q", events[0].Type, tt.wantType)
			}
			if events[0].Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", events[0].Severity, tt.wantSeverity)
			}
			if events[0].Risk != tt.result.Risk {
				t.Errorf("Risk = %q, want %q", events[0].Risk, tt.result.Risk)
			}
		})
	}
}

func TestLogger_ScreenFailed(t *testing.T) {
	l, logFile := newTestLogger(t)

	l.ScreenFailed("req-1", "0xabc", errors.New("connection refused"), 50*time.Millisecond)
	l.Flush()

	events := readEvents(t, logFile)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Severity != SeverityError {
		t.Errorf("Severity = %q, want ERROR", events[0].Severity)
	}
	if !strings.Contains(events[0].Error, "connection refused") {
		t.Errorf("Error = %q, want cause text", events[0].Error)
	}
}

func TestLogger_Rotation(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(&LoggerConfig{
		LogFile:       logFile,
		MaxSizeBytes:  1, // rotate on every flush after the first write
		BufferSize:    100,
		FlushInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer l.Stop()

	l.ScreenStarted("req-1", "0xabc")
	l.Flush()
	l.ScreenStarted("req-2", "0xdef")
	l.Flush()

	archives, err := filepath.Glob(logFile + ".*.gz")
	if err != nil || len(archives) != 1 {
		t.Fatalf("archives = %v (err %v), want exactly one", archives, err)
	}

	// The archive must decompress back to the first event.
	f, err := os.Open(archives[0])
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.Contains(string(data), "req-1") {
		t.Errorf("archive missing first event:\n%s", data)
	}

	// The live file holds only the second event.
	events := readEvents(t, logFile)
	if len(events) != 1 || events[0].RequestID != "req-2" {
		t.Errorf("live file events = %+v, want only req-2", events)
	}
}

func TestLogger_StopFlushes(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(&LoggerConfig{
		LogFile:       logFile,
		FlushInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}

	l.Start()
	l.ClientCreated("https://api.veria.cc")
	l.ClientClosed()

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	events := readEvents(t, logFile)
	if len(events) != 2 {
		t.Fatalf("got %d events after Stop, want 2", len(events))
	}
	if events[0].Type != EventClientCreated || events[1].Type != EventClientClosed {
		t.Errorf("event types = %q, %q", events[0].Type, events[1].Type)
	}
}
