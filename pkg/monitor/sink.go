package monitor

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Sink durably records usage entries and alert history in SQLite for
// cross-restart audit. Writes are queued and flushed by a background writer
// so the request path never touches the database; when the queue is full the
// entry is dropped and logged, never blocked on.
type Sink struct {
	db            *sql.DB
	retentionDays int

	usageCh chan models.UsageLogEntry
	alertCh chan models.Alert

	done chan struct{}
	stop chan struct{}
}

const createSinkTables = `
CREATE TABLE IF NOT EXISTS usage_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	model TEXT NOT NULL,
	cost REAL NOT NULL,
	latency_ms INTEGER NOT NULL,
	status_code INTEGER NOT NULL,
	cache_hit INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_time ON usage_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_user ON usage_log(user_id, timestamp);

CREATE TABLE IF NOT EXISTS alert_history (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	observed_value REAL NOT NULL,
	threshold REAL NOT NULL,
	fired_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_fired ON alert_history(fired_at);
`

// NewSink opens the durable sink database and starts the writer.
func NewSink(dbPath string, retentionDays int) (*Sink, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sink db: %w", err)
	}
	if _, err := db.Exec(createSinkTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sink db: %w", err)
	}

	s := &Sink{
		db:            db,
		retentionDays: retentionDays,
		usageCh:       make(chan models.UsageLogEntry, 1024),
		alertCh:       make(chan models.Alert, 64),
		done:          make(chan struct{}),
		stop:          make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// EnqueueUsage queues a usage entry for durable write. Drops when the queue
// is full rather than stalling the caller.
func (s *Sink) EnqueueUsage(e models.UsageLogEntry) {
	select {
	case s.usageCh <- e:
	default:
		log.Printf("sink: usage queue full, dropping entry for %s", e.UserID)
	}
}

// EnqueueAlert queues an alert for durable write.
func (s *Sink) EnqueueAlert(a models.Alert) {
	select {
	case s.alertCh <- a:
	default:
		log.Printf("sink: alert queue full, dropping alert %s", a.ID)
	}
}

func (s *Sink) writeLoop() {
	defer close(s.done)

	retention := time.NewTicker(time.Hour)
	defer retention.Stop()

	for {
		select {
		case e := <-s.usageCh:
			s.writeUsage(e)
		case a := <-s.alertCh:
			s.writeAlert(a)
		case <-retention.C:
			if n, err := s.Cleanup(); err != nil {
				log.Printf("sink: retention cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("sink: retention removed %d rows", n)
			}
		case <-s.stop:
			// Drain what is already queued before shutting down.
			for {
				select {
				case e := <-s.usageCh:
					s.writeUsage(e)
				case a := <-s.alertCh:
					s.writeAlert(a)
				default:
					return
				}
			}
		}
	}
}

func (s *Sink) writeUsage(e models.UsageLogEntry) {
	_, err := s.db.Exec(
		`INSERT INTO usage_log (timestamp, user_id, endpoint, model, cost, latency_ms, status_code, cache_hit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC(), e.UserID, e.Endpoint, e.Model, e.Cost, e.Latency.Milliseconds(), e.StatusCode, boolToInt(e.CacheHit),
	)
	if err != nil {
		log.Printf("sink: usage write failed: %v", err)
	}
}

func (s *Sink) writeAlert(a models.Alert) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO alert_history (id, type, severity, message, observed_value, threshold, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), string(a.Severity), a.Message, a.ObservedValue, a.Threshold, a.FiredAt.UTC(),
	)
	if err != nil {
		log.Printf("sink: alert write failed: %v", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UsageSummary aggregates the durable log grouped by user and endpoint,
// optionally filtered by user.
func (s *Sink) UsageSummary(userID string) ([]SummaryRow, error) {
	q := `SELECT user_id, endpoint, COUNT(*), SUM(cost), SUM(cache_hit) FROM usage_log`
	var args []any
	if userID != "" {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	q += ` GROUP BY user_id, endpoint ORDER BY user_id, endpoint`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("sink summary: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.UserID, &r.Endpoint, &r.Requests, &r.TotalCost, &r.CacheHits); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SummaryRow is one line of the durable usage summary.
type SummaryRow struct {
	UserID    string
	Endpoint  string
	Requests  int64
	TotalCost float64
	CacheHits int64
}

// SpentSince totals recorded cost at or after the cutoff.
func (s *Sink) SpentSince(cutoff time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(cost), 0) FROM usage_log WHERE timestamp >= ?`, cutoff).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sink spend query: %w", err)
	}
	return total, nil
}

// AlertHistory returns recorded alerts, newest first.
func (s *Sink) AlertHistory(limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, type, severity, message, observed_value, threshold, fired_at
		 FROM alert_history ORDER BY fired_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("alert history: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Type, &a.Severity, &a.Message, &a.ObservedValue, &a.Threshold, &a.FiredAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Cleanup deletes rows older than the retention period. A non-positive
// retention keeps everything.
func (s *Sink) Cleanup() (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	res, err := s.db.Exec(`DELETE FROM usage_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sink cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	res, err = s.db.Exec(`DELETE FROM alert_history WHERE fired_at < ?`, cutoff)
	if err != nil {
		return n, fmt.Errorf("sink cleanup alerts: %w", err)
	}
	an, _ := res.RowsAffected()
	return n + an, nil
}

// Close stops the writer after draining queued writes, then closes the
// database.
func (s *Sink) Close() error {
	close(s.stop)
	<-s.done
	return s.db.Close()
}
