package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatassist/internal/dbx"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/migrations"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/chats"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends PostgreSQL or SQLite repositories bound to one
// *sql.DB, or to a transaction inside Atomic.
type SQLRepositoryManager struct {
	db     *sql.DB
	driver string
	logger logging.Logger
}

// sqlRepos binds the repositories to a DBTX.
type sqlRepos struct {
	db     dbx.DBTX
	driver string
}

func (r sqlRepos) Users() users.Repository {
	return users.NewSQLRepository(r.db, r.driver)
}

func (r sqlRepos) Chats() chats.Repository {
	return chats.NewSQLRepository(r.db, r.driver)
}

func (r sqlRepos) Messages() messages.Repository {
	return messages.NewSQLRepository(r.db, r.driver)
}

func NewSQLRepositoryManager(db *sql.DB, driver string) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, driver: driver, logger: logging.Nop{}}
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return sqlRepos{db: m.db, driver: m.driver}.Users()
}

func (m *SQLRepositoryManager) Chats() chats.Repository {
	return sqlRepos{db: m.db, driver: m.driver}.Chats()
}

func (m *SQLRepositoryManager) Messages() messages.Repository {
	return sqlRepos{db: m.db, driver: m.driver}.Messages()
}

func (m *SQLRepositoryManager) Atomic(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, sqlRepos{db: tx, driver: m.driver})
	})
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	dialect, dir := "postgres", migrations.PostgresDir
	if m.driver == dbx.DriverSQLite {
		dialect, dir = "sqlite3", migrations.SQLiteDir
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{ctx: ctx, l: m.logger.With("module", "migrations")})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, dir); err != nil {
		return err
	}
	return nil
}

// OpenSQL connects to the database, runs migrations and returns the manager.
func OpenSQL(ctx context.Context, driver, dsn string, logger logging.Logger) (*SQLRepositoryManager, error) {
	db, err := dbx.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}

	m := NewSQLRepositoryManager(db, driver)
	if logger != nil {
		m.logger = logger
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}

// gooseLogger routes goose's printf-style output into the structured logger.
// Fatalf does not exit; goose reports real failures through returned errors.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}
