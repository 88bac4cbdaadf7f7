package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// Dialect captures the per-database differences of the SQL store
type Dialect struct {
	Name   string
	Driver string
	Schema []string
	// Placeholder returns the bind parameter for the n-th argument, 1-based
	Placeholder func(n int) string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// SQLite stores messages with mattn/go-sqlite3
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite3",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			source TEXT NOT NULL,
			sender TEXT NOT NULL,
			subject TEXT,
			body TEXT,
			received_at TIMESTAMP NOT NULL,
			payload TEXT NOT NULL,
			stored_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at)`,
	},
	Placeholder: questionMark,
}

// MySQL stores messages with go-sql-driver/mysql
var MySQL = Dialect{
	Name:   "mysql",
	Driver: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS messages (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			id VARCHAR(64) NOT NULL,
			source VARCHAR(16) NOT NULL,
			sender VARCHAR(255) NOT NULL,
			subject TEXT,
			body MEDIUMTEXT,
			received_at DATETIME(3) NOT NULL,
			payload MEDIUMTEXT NOT NULL,
			stored_at DATETIME(3) NOT NULL,
			INDEX idx_messages_received_at (received_at)
		)`,
	},
	Placeholder: questionMark,
}

// Postgres stores messages with lib/pq
var Postgres = Dialect{
	Name:   "postgres",
	Driver: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS messages (
			seq BIGSERIAL PRIMARY KEY,
			id VARCHAR(64) NOT NULL,
			source VARCHAR(16) NOT NULL,
			sender VARCHAR(255) NOT NULL,
			subject TEXT,
			body TEXT,
			received_at TIMESTAMP NOT NULL,
			payload TEXT NOT NULL,
			stored_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_received_at ON messages(received_at)`,
	},
	Placeholder: dollar,
}

// SQLStore is a MessageStore over database/sql. Rows are ordered by an
// auto-increment sequence so List returns the newest append first.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	retention Retention
	logger    *zap.Logger
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once

	insertQuery string
	purgeQuery  string
}

// NewSQLiteStore opens the SQLite database at path
func NewSQLiteStore(path string, logger *zap.Logger, retention Retention) (*SQLStore, error) {
	return openSQLStore(SQLite, path, logger, retention)
}

// NewMySQLStore connects to MySQL with dsn
func NewMySQLStore(dsn string, logger *zap.Logger, retention Retention) (*SQLStore, error) {
	return openSQLStore(MySQL, dsn, logger, retention)
}

// NewPostgresStore connects to PostgreSQL with dsn
func NewPostgresStore(dsn string, logger *zap.Logger, retention Retention) (*SQLStore, error) {
	return openSQLStore(Postgres, dsn, logger, retention)
}

func openSQLStore(dialect Dialect, dsn string, logger *zap.Logger, retention Retention) (*SQLStore, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect.Name, err)
	}

	if dialect.Driver != SQLite.Driver {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s, err := NewSQLStore(db, dialect, logger, retention)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database, creating the schema when missing
func NewSQLStore(db *sql.DB, dialect Dialect, logger *zap.Logger, retention Retention) (*SQLStore, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}

	placeholders := make([]string, 8)
	for i := range placeholders {
		placeholders[i] = dialect.Placeholder(i + 1)
	}

	s := &SQLStore{
		db:        db,
		dialect:   dialect,
		retention: retention,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		insertQuery: "INSERT INTO messages (id, source, sender, subject, body, received_at, payload, stored_at) VALUES (" +
			strings.Join(placeholders, ", ") + ")",
		purgeQuery: "DELETE FROM messages WHERE received_at < " + dialect.Placeholder(1),
	}

	if retention.enabled() {
		go cleanupTask(retention.Frequency, s.stopCh, logger, s.Cleanup)
	}

	return s, nil
}

// Append inserts msg as the newest row
func (s *SQLStore) Append(ctx context.Context, msg *core.Message) error {
	payload, err := encodeRecord(msg)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.insertQuery,
		msg.ID, string(msg.Source), msg.Sender, msg.Subject, msg.Body,
		msg.ReceivedAt.UTC(), string(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// List returns every stored message, newest first
func (s *SQLStore) List(ctx context.Context) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM messages ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []*core.Message{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg, err := decodeRecord([]byte(payload))
		if err != nil {
			s.logger.Warn("Skipping unreadable message row", zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return msgs, nil
}

// Clear removes every stored message
func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

// Cleanup removes messages received before the retention window
func (s *SQLStore) Cleanup(ctx context.Context) error {
	if s.retention.Age <= 0 {
		return nil
	}

	result, err := s.db.ExecContext(ctx, s.purgeQuery, s.now().Add(-s.retention.Age).UTC())
	if err != nil {
		return fmt.Errorf("failed to purge expired messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Purged expired messages",
			zap.String("dialect", s.dialect.Name),
			zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (s *SQLStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database",
				zap.String("dialect", s.dialect.Name),
				zap.Error(err))
		}
	})
}
