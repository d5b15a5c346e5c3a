package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// AppLogger provides logging utilities for the game master
// Used by both the CLI and tests
type AppLogger struct {
	outputDir  string
	logDB      bool
	logEvents  bool
	debug      bool
	dbLog      *os.File
	eventLog   *os.File
	mu         sync.Mutex
	eventCount int
}

// Global application logger (used by the CLI)
var appLogger *AppLogger

// LogConfig holds logging configuration
type LogConfig struct {
	OutputDir string
	LogDB     bool
	LogEvents bool
	Debug     bool
}

// NewAppLogger creates a new application logger
func NewAppLogger(config LogConfig) (*AppLogger, error) {
	al := &AppLogger{
		outputDir: config.OutputDir,
		logDB:     config.LogDB,
		logEvents: config.LogEvents,
		debug:     config.Debug,
	}

	if al.outputDir == "" {
		return al, nil // No file logging, just in-memory state
	}

	if err := os.MkdirAll(al.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	var err error
	if al.logDB {
		path := fmt.Sprintf("%s/database.log", al.outputDir)
		al.dbLog, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open database log: %w", err)
		}
	}
	if al.logEvents {
		path := fmt.Sprintf("%s/events.log", al.outputDir)
		al.eventLog, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
	}

	return al, nil
}

// InitAppLogger initializes the global application logger
func InitAppLogger(config LogConfig) error {
	logger, err := NewAppLogger(config)
	if err != nil {
		return err
	}
	appLogger = logger
	return nil
}

// Close closes all log files
func (al *AppLogger) Close() {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.dbLog != nil {
		al.dbLog.Close()
	}
	if al.eventLog != nil {
		al.eventLog.Close()
	}
}

// LogEvent appends one engine event line for a game
func (al *AppLogger) LogEvent(gameID string, turn int, phase, line string) {
	if !al.logEvents || al.eventLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.eventCount++
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(al.eventLog, "[%s] #%d game=%s turn=%d %s: %s\n",
		timestamp, al.eventCount, gameID, turn, phase, line)
}

// LogDB dumps the current database state
func (al *AppLogger) LogDB(context string) {
	if !al.logDB || al.dbLog == nil || db == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n========== DATABASE DUMP [%s] ==========\n", timestamp)
	fmt.Fprintf(&buf, "Context: %s\n\n", context)

	var tables []string
	if err := db.Select(&tables, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"); err != nil {
		fmt.Fprintf(&buf, "Error getting tables: %v\n", err)
		al.dbLog.Write(buf.Bytes())
		return
	}

	for _, table := range tables {
		fmt.Fprintf(&buf, "--- Table: %s ---\n", table)

		rows, err := db.Queryx("SELECT * FROM " + table)
		if err != nil {
			fmt.Fprintf(&buf, "Error: %v\n\n", err)
			continue
		}

		cols, err := rows.Columns()
		if err != nil {
			fmt.Fprintf(&buf, "Error getting columns: %v\n\n", err)
			rows.Close()
			continue
		}

		fmt.Fprintf(&buf, "Columns: %s\n", strings.Join(cols, " | "))

		rowCount := 0
		for rows.Next() {
			rowCount++
			values, err := rows.SliceScan()
			if err != nil {
				fmt.Fprintf(&buf, "Error scanning row: %v\n", err)
				continue
			}

			var rowStr []string
			for _, v := range values {
				switch val := v.(type) {
				case nil:
					rowStr = append(rowStr, "NULL")
				case []byte:
					rowStr = append(rowStr, string(val))
				default:
					rowStr = append(rowStr, fmt.Sprintf("%v", val))
				}
			}
			fmt.Fprintf(&buf, "Row %d: %s\n", rowCount, strings.Join(rowStr, " | "))
		}
		rows.Close()

		if rowCount == 0 {
			fmt.Fprintf(&buf, "(empty)\n")
		}
		buf.WriteString("\n")
	}

	al.dbLog.Write(buf.Bytes())
}

// Debug logs a debug message if debug mode is enabled
func (al *AppLogger) Debug(format string, args ...any) {
	if !al.debug {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// IsEnabled returns true if any logging is enabled
func (al *AppLogger) IsEnabled() bool {
	return al.logDB || al.logEvents || al.debug
}

// ============================================================================
// Test-specific wrapper
// ============================================================================

// TestLogger wraps AppLogger for test use with testing.T integration
type TestLogger struct {
	*AppLogger
	t *testing.T
}

// NewTestLogger creates a test logger from environment variables
func NewTestLogger(t *testing.T) *TestLogger {
	config := LogConfig{
		OutputDir: os.Getenv("TEST_OUTPUT_DIR"),
		LogDB:     os.Getenv("TEST_LOG_DB") == "1",
		LogEvents: os.Getenv("TEST_LOG_EVENTS") == "1",
		Debug:     os.Getenv("TEST_LOG_DEBUG") == "1",
	}

	al, err := NewAppLogger(config)
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}

	if config.OutputDir != "" {
		t.Logf("Test logs will be written to: %s", config.OutputDir)
	}

	return &TestLogger{AppLogger: al, t: t}
}

// Debug logs a debug message through testing.T
func (tl *TestLogger) Debug(format string, args ...any) {
	if tl.debug {
		tl.t.Logf("[DEBUG] "+format, args...)
	}
}

// ============================================================================
// Global helper functions
// ============================================================================

// logError logs an error with context and dumps the database in dev mode
func logError(context string, err error) {
	log.Printf("ERROR [%s]: %v", context, err)
	if appLogger != nil && appLogger.debug {
		LogDBState("after error in " + context)
	}
}

// LogEvent logs an engine event using the global logger
func LogEvent(gameID string, turn int, phase, line string) {
	if appLogger != nil {
		appLogger.LogEvent(gameID, turn, phase, line)
	}
}

// LogDBState logs the database state using the global logger
func LogDBState(context string) {
	if appLogger != nil {
		appLogger.LogDB(context)
	}
}

// DebugLog logs a debug message using the global logger
func DebugLog(format string, args ...any) {
	if appLogger != nil {
		appLogger.Debug(format, args...)
	}
}

// CloseAppLogger closes the global application logger
func CloseAppLogger() {
	if appLogger != nil {
		appLogger.Close()
	}
}
