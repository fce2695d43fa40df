// Package sqlite writes leases and correlated records into a SQLite file.
//
// Every HTTP attribute key becomes a TEXT column of the logs table; columns
// are added as new keys show up. A run is a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
)

const (
	leaseTable  = "dhcp_logs"
	recordTable = "logs"
)

// fixed columns of the logs table, in insert order
var recordFixed = []string{"datetime", "mac_addr", "device_name"}

// ErrFinished is returned by writes after Commit or Close.
var ErrFinished = errors.New("sqlite sink: transaction already finished")

type Sink struct {
	db  *sql.DB
	tx  *sql.Tx
	log logger.Logger

	lease   *sql.Stmt
	inserts map[string]*sql.Stmt // column signature -> prepared insert
	columns map[string]struct{}  // lower-cased names of logs columns
	renamed map[string]bool      // keys already reported as sanitised
}

// Open opens (or creates) the database at path, makes sure both tables exist
// and starts the run transaction.
func Open(ctx context.Context, path string, log logger.Logger) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

	s := &Sink{
		db:      db,
		log:     log,
		inserts: make(map[string]*sql.Stmt),
		columns: make(map[string]struct{}),
		renamed: make(map[string]bool),
	}
	if err := s.begin(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("prepare sqlite %s: %w", path, err)
	}
	return s, nil
}

func (s *Sink) begin(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx

	schema := `
CREATE TABLE IF NOT EXISTS dhcp_logs (
  datetime TEXT,
  ip_addr TEXT,
  mac_addr TEXT,
  device_name TEXT
);
CREATE TABLE IF NOT EXISTS logs (
  datetime TEXT,
  mac_addr TEXT,
  device_name TEXT
);`
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if err := s.loadColumns(ctx); err != nil {
		return err
	}

	s.lease, err = tx.PrepareContext(ctx,
		"INSERT INTO dhcp_logs (datetime, ip_addr, mac_addr, device_name) VALUES (?, ?, ?, ?)")
	return err
}

// loadColumns picks up attribute columns left by earlier runs.
func (s *Sink) loadColumns(ctx context.Context) error {
	rows, err := s.tx.QueryContext(ctx, "PRAGMA table_info("+recordTable+")")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		s.columns[strings.ToLower(name)] = struct{}{}
	}
	return rows.Err()
}

func (s *Sink) WriteLease(ctx context.Context, at domain.Timestamp, ack domain.Ack) error {
	if s.tx == nil {
		return ErrFinished
	}
	if _, err := s.lease.ExecContext(ctx, at.SQL(), ack.IP, ack.MAC, nullable(ack.DeviceName)); err != nil {
		return fmt.Errorf("insert lease %s: %w", ack.IP, err)
	}
	return nil
}

func (s *Sink) WriteRecord(ctx context.Context, rec domain.Correlated) error {
	if s.tx == nil {
		return ErrFinished
	}

	cols := append([]string(nil), recordFixed...)
	args := []any{rec.Record.Time.SQL(), rec.MAC, rec.DeviceName}
	slot := make(map[string]int, len(rec.Record.Attrs))

	for _, key := range rec.Record.Keys() {
		col := Column(key)
		if col != key && !s.renamed[key] {
			s.renamed[key] = true
			s.log.Debug("sanitised attribute column", logger.String("key", key), logger.String("column", col))
		}
		if err := s.ensureColumn(ctx, col); err != nil {
			return err
		}
		// keys that collapse onto one column: the later key wins
		lc := strings.ToLower(col)
		if i, ok := slot[lc]; ok {
			args[i] = rec.Record.Attrs[key]
			continue
		}
		slot[lc] = len(args)
		cols = append(cols, col)
		args = append(args, rec.Record.Attrs[key])
	}

	stmt, err := s.insertFor(ctx, cols)
	if err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Sink) ensureColumn(ctx context.Context, col string) error {
	lc := strings.ToLower(col)
	if _, ok := s.columns[lc]; ok {
		return nil
	}
	q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", recordTable, quote(col))
	if _, err := s.tx.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("add column %s: %w", col, err)
	}
	s.columns[lc] = struct{}{}
	s.log.Debug("added attribute column", logger.String("column", col))
	return nil
}

func (s *Sink) insertFor(ctx context.Context, cols []string) (*sql.Stmt, error) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	sig := strings.Join(quoted, ",")
	if stmt, ok := s.inserts[sig]; ok {
		return stmt, nil
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", recordTable, sig, marks)
	stmt, err := s.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.inserts[sig] = stmt
	return stmt, nil
}

// Commit makes the run durable. The sink accepts no writes afterwards.
func (s *Sink) Commit(context.Context) error {
	if s.tx == nil {
		return ErrFinished
	}
	s.closeStatements()
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit sqlite: %w", err)
	}
	return nil
}

// Close rolls back anything not committed and closes the database.
func (s *Sink) Close() error {
	s.closeStatements()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

func (s *Sink) closeStatements() {
	if s.lease != nil {
		_ = s.lease.Close()
		s.lease = nil
	}
	for sig, stmt := range s.inserts {
		_ = stmt.Close()
		delete(s.inserts, sig)
	}
}

// Column maps an attribute key onto a logs column name. Dashes become
// underscores; names that clash with SQL or with the fixed columns get a
// leading underscore.
func Column(key string) string {
	col := strings.ReplaceAll(key, "-", "_")
	switch strings.ToLower(col) {
	case "group", "datetime", "mac_addr", "device_name":
		return "_" + col
	}
	return col
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
