package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"NinetyDays/internal/model"
)

// SQLiteRecorder journals ledger events and audits to a SQLite database.
// Amounts are stored as decimal TEXT so no precision is lost.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_events (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			timestamp    INTEGER NOT NULL,
			kind         TEXT NOT NULL,
			participant  TEXT,
			payload      TEXT NOT NULL,
			total_funds  TEXT,
			total_bonus  TEXT,
			fees_accrued TEXT,
			active_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON ledger_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_participant ON ledger_events(participant)`,

		`CREATE TABLE IF NOT EXISTS audits (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			total_funds     TEXT,
			total_bonus     TEXT,
			fees_accrued    TEXT,
			custody_balance TEXT,
			active_count    INTEGER,
			participants    INTEGER,
			entries_open    INTEGER,
			violation       TEXT,
			shortfall       TEXT,
			save_error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audits_ts ON audits(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Publish journals every event of one ledger operation in a single
// transaction, each stamped with the totals after the operation.
func (r *SQLiteRecorder) Publish(events []model.Event, summary model.Summary) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UnixNano()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", ev.Kind(), err)
		}
		_, err = tx.Exec(`INSERT INTO ledger_events
			(id, timestamp, kind, participant, payload, total_funds, total_bonus, fees_accrued, active_count)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			uuid.NewString(), now, string(ev.Kind()), string(participantOf(ev)), string(payload),
			summary.TotalFunds.String(), summary.TotalBonus.String(), summary.FeesAccrued.String(),
			summary.ActiveCount,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", ev.Kind(), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordAudit(rec *AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := rec.Summary
	_, err := r.db.Exec(`INSERT INTO audits
		(timestamp, total_funds, total_bonus, fees_accrued, custody_balance,
		 active_count, participants, entries_open, violation, shortfall)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.now().UnixNano(), s.TotalFunds.String(), s.TotalBonus.String(), s.FeesAccrued.String(),
		s.CustodyBalance.String(), s.ActiveCount, s.Participants, s.EntriesOpen,
		rec.Violation, rec.Shortfall,
	)
	return err
}

// RecentEvents returns up to limit events, newest first.
func (r *SQLiteRecorder) RecentEvents(limit int) ([]EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, kind, participant, payload,
		total_funds, total_bonus, fees_accrued, active_count
		FROM ledger_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			rec         EventRecord
			ts          int64
			kind        string
			participant string
		)
		if err := rows.Scan(&rec.ID, &ts, &kind, &participant, &rec.Payload,
			&rec.TotalFunds, &rec.TotalBonus, &rec.FeesAccrued, &rec.ActiveCount); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		rec.Kind = model.EventKind(kind)
		rec.Participant = model.Identity(participant)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
