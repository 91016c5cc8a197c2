package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/screensorter/internal/domain"
)

const FileName = "history.db"

//go:embed schema.sql
var schemaSQL string

// schemaVersion 变更表结构时递增；不做迁移，版本不一致直接报错（删除 history.db 即可）。
const schemaVersion = 1

// ErrSchemaMismatch 表示 history.db 的表结构版本与当前程序不一致。
var ErrSchemaMismatch = errors.New("history.db 表结构版本不一致")

// Store 是整理历史（每次非 dry-run 的 RunReport）的 SQLite 存储。
type Store struct {
	db   *sql.DB
	path string
}

// RunRow 是 history 列表中的一行（不含条目明细）。
type RunRow struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	Path       string               `json:"path" yaml:"path"`
	Strategy   string               `json:"strategy" yaml:"strategy"`
	Outcome    string               `json:"outcome" yaml:"outcome"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at" yaml:"finished_at"`
	Summary    domain.ReportSummary `json:"summary" yaml:"summary"`
}

// Open 打开（必要时创建）<dir>/history.db。
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建 history 目录失败：%w", err)
	}

	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Close 关闭底层连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w：数据库版本 %d，期望 %d（可删除 %s 后重试）", ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return tx.Commit()
}

// Record 在一个事务内写入 run 及其全部条目。
func (s *Store) Record(ctx context.Context, rr domain.RunReport) error {
	if rr.RunID == "" {
		return errors.New("run_id 不能为空")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, path, strategy, outcome, started_at, finished_at, files, folders, moved, renamed, failed, bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rr.RunID, rr.Path, rr.Strategy, rr.Outcome,
		formatTime(rr.StartedAt), formatTime(rr.FinishedAt),
		rr.Summary.Files, rr.Summary.Folders, rr.Summary.Moved, rr.Summary.Renamed, rr.Summary.Failed, rr.Summary.Bytes,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_items
		(run_id, kind, src, renamed, dst, status, error_code, error_msg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range rr.Items {
		if _, err := stmt.ExecContext(ctx, rr.RunID, it.Kind, it.Src, it.Renamed, it.Dst, it.Status, it.ErrorCode, it.ErrorMsg); err != nil {
			return fmt.Errorf("insert item %q: %w", it.Src, err)
		}
	}
	return tx.Commit()
}

// Recent 按开始时间倒序返回最近 limit 次运行（limit<=0 时默认 20）。
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, path, strategy, outcome, started_at, finished_at, files, folders, moved, renamed, failed, bytes
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunRow, 0, limit)
	for rows.Next() {
		var (
			r                 RunRow
			started, finished string
		)
		if err := rows.Scan(&r.RunID, &r.Path, &r.Strategy, &r.Outcome, &started, &finished,
			&r.Summary.Files, &r.Summary.Folders, &r.Summary.Moved, &r.Summary.Renamed, &r.Summary.Failed, &r.Summary.Bytes,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Items 返回某次运行的条目明细（按写入顺序）。
func (s *Store) Items(ctx context.Context, runID string) ([]domain.ItemResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, src, renamed, dst, status, error_code, error_msg
		FROM run_items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []domain.ItemResult
	for rows.Next() {
		var it domain.ItemResult
		if err := rows.Scan(&it.Kind, &it.Src, &it.Renamed, &it.Dst, &it.Status, &it.ErrorCode, &it.ErrorMsg); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// 固定宽度的 UTC 时间，保证按字符串排序即按时间排序。
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
