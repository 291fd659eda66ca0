package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ExportEntry records one produced artifact.
type ExportEntry struct {
	ID        string    `json:"id"`
	Chart     string    `json:"chart"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	Preset    string    `json:"preset,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportLog 是导出记录表（database/sql + modernc sqlite）。
type ExportLog struct {
	mu sync.Mutex
	db *sql.DB
}

func NewExportLog(path string) (*ExportLog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("export log: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureExportSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &ExportLog{db: db}, nil
}

func ensureExportSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chart_exports (
			id TEXT PRIMARY KEY,
			chart TEXT NOT NULL,
			format TEXT NOT NULL,
			filename TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			preset TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chart_exports_created ON chart_exports(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("export log schema: %w", err)
		}
	}
	return nil
}

func (l *ExportLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *ExportLog) Record(ctx context.Context, e ExportEntry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("export entry requires id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return fmt.Errorf("export log closed")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO chart_exports (id, chart, format, filename, size, preset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Chart, e.Format, e.Filename, e.Size, e.Preset, e.CreatedAt.UnixMilli())
	return err
}

// Recent returns up to limit entries, newest first.
func (l *ExportLog) Recent(ctx context.Context, limit int) ([]ExportEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, fmt.Errorf("export log closed")
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, chart, format, filename, size, COALESCE(preset, ''), created_at
		FROM chart_exports
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExportEntry
	for rows.Next() {
		var (
			e  ExportEntry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Chart, &e.Format, &e.Filename, &e.Size, &e.Preset, &ts); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
