package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"mimir/internal/model"
)

//go:embed schema_sqlite.sql schema_postgres.sql
var schemaFS embed.FS

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound 按 ID 查询的记录不存在
var ErrNotFound = model.ErrNotFound

// Store 培训主数据的 SQL 存储层（SQLite / PostgreSQL）
type Store struct {
	db     *sql.DB
	driver string
}

// queryer *sql.DB 与 *sql.Tx 的公共部分
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New 创建新的 Store 实例
//
// driver 为 sqlite3 时 dsn 是数据库文件路径；为 pgx 时是 PostgreSQL 连接串。
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		// 确保 data 目录存在
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite 建议单连接；外键约束按连接生效
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, driver: driver}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// NewSQLite 打开（或创建）指定路径的 SQLite 数据库
func NewSQLite(dbPath string) (*Store, error) {
	return New(DriverSQLite, dbPath)
}

// initSchema 初始化数据库结构
func (s *Store) initSchema() error {
	name := "schema_sqlite.sql"
	if s.driver == DriverPostgres {
		name = "schema_postgres.sql"
	}

	schemaSQL, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	// 逐条执行，避免依赖驱动的多语句支持
	for _, stmt := range strings.Split(string(schemaSQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	return nil
}

// rebind 将 ? 占位符转换为当前驱动的格式（PostgreSQL 使用 $n）
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Driver 当前数据库驱动名
func (s *Store) Driver() string {
	return s.driver
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB 获取原始数据库连接（用于事务等高级操作）
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx 在事务中执行 fn
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stats 主数据统计
func (s *Store) Stats(ctx context.Context) (model.CatalogStats, error) {
	var st model.CatalogStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM employees),
			(SELECT COUNT(*) FROM trainings),
			(SELECT COUNT(*) FROM training_sessions)
	`).Scan(&st.Departments, &st.Employees, &st.Trainings, &st.Sessions)
	if err != nil {
		return st, fmt.Errorf("failed to count catalog: %w", err)
	}
	return st, nil
}
