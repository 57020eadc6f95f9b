package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger records authentication events to the database and a JSON log file.
// In async mode writes go through a buffered queue drained by one worker.
type Logger struct {
	db         *sql.DB
	logFile    *os.File
	asyncMode  bool
	eventQueue chan *Event
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewLogger creates a new audit logger
func NewLogger(db *sql.DB, logFilePath string, asyncMode bool) (*Logger, error) {
	schema := `
    CREATE TABLE IF NOT EXISTS audit_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        level TEXT NOT NULL,
        email TEXT,
        action TEXT NOT NULL,
        success BOOLEAN NOT NULL,
        error_msg TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
    CREATE INDEX IF NOT EXISTS idx_audit_email ON audit_log(email);
    CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);
    `

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create audit log table: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := &Logger{
		db:        db,
		logFile:   logFile,
		asyncMode: asyncMode,
		ctx:       ctx,
		cancel:    cancel,
	}

	if asyncMode {
		logger.eventQueue = make(chan *Event, 1000)
		logger.startWorker()
	}

	return logger, nil
}

// Log records an audit event
func (al *Logger) Log(event *Event) error {
	event.Timestamp = time.Now()

	if al.asyncMode {
		select {
		case al.eventQueue <- event:
			return nil
		default:
			return fmt.Errorf("audit log queue is full")
		}
	}

	return al.writeEvent(event)
}

func (al *Logger) writeEvent(event *Event) error {
	result, err := al.db.Exec(`
        INSERT INTO audit_log (timestamp, level, email, action, success, error_msg)
        VALUES (?, ?, ?, ?, ?, ?)
    `,
		event.Timestamp,
		event.Level,
		event.Email,
		event.Action,
		event.Success,
		event.ErrorMsg,
	)
	if err != nil {
		log.Printf("Failed to write audit log to database: %v", err)
		// Continue to write to file even if DB write fails
	} else {
		event.ID, _ = result.LastInsertId()
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := al.logFile.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}

	return nil
}

func (al *Logger) startWorker() {
	al.wg.Add(1)
	go func() {
		defer al.wg.Done()
		for {
			select {
			case event := <-al.eventQueue:
				if err := al.writeEvent(event); err != nil {
					log.Printf("Failed to write audit event: %v", err)
				}
			case <-al.ctx.Done():
				// Drain remaining events
				for len(al.eventQueue) > 0 {
					al.writeEvent(<-al.eventQueue)
				}
				return
			}
		}
	}()
}

// RecentFailures returns the number of failed events for an action and email
// since the given time. Used by the security monitor.
func (al *Logger) RecentFailures(action, email string, since time.Time) (int, error) {
	var count int
	err := al.db.QueryRow(`
        SELECT COUNT(*) FROM audit_log
        WHERE action = ? AND email = ? AND success = 0 AND timestamp >= ?
    `, action, email, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query audit log: %w", err)
	}

	return count, nil
}

// FailuresSince returns failed-event counts per email for an action
func (al *Logger) FailuresSince(action string, since time.Time) (map[string]int, error) {
	rows, err := al.db.Query(`
        SELECT email, COUNT(*) FROM audit_log
        WHERE action = ? AND success = 0 AND timestamp >= ? AND email != ''
        GROUP BY email
    `, action, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var email string
		var count int
		if err := rows.Scan(&email, &count); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		counts[email] = count
	}

	return counts, rows.Err()
}

// Close flushes pending events and closes the log file. The event queue is
// deliberately left open: a Log call racing Close must not panic on a closed
// channel, and the worker exits via ctx instead.
func (al *Logger) Close() error {
	if al.asyncMode {
		al.cancel()
		al.wg.Wait()
	}

	return al.logFile.Close()
}
