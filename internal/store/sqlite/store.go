package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/store/connector"
)

const runColumns = "id, command, target_url, exit_code, outcome, http_status, content_type, elapsed_ms, success, output, error, ran_at"

type Store struct {
	db      *sql.DB
	dialect *Dialect
	DSN     string
	logger  *common.Logger
}

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
		logger:  common.GetLogger().WithStore("sqlite"),
	}
}

// Load loads configuration into the SQLite store
func (s *Store) Load(config map[string]interface{}) error {
	if dsn, ok := config["dsn"].(string); ok && dsn != "" {
		s.DSN = dsn
		return nil
	}
	if path, ok := config["path"].(string); ok && path != "" {
		s.DSN = fmt.Sprintf("file:%s?_busy_timeout=%d&%s", path, busyTimeoutMS, foreignKeysParam)
	}
	return nil
}

// Connect opens the database; an empty DSN means an in-memory database
func (s *Store) Connect() (*sql.DB, error) {
	if s.DSN == "" {
		s.DSN = ":memory:"
	}
	db, err := s.dialect.Connect(s.DSN)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.log().Info("SQLite database connection established successfully")
	return db, nil
}

// Validate performs basic validation (default implementation)
func (s *Store) Validate() error {
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) log() *common.Logger {
	if s.logger == nil {
		s.logger = common.NewDiscardLogger()
	}
	return s.logger
}

// Ensure creates the proxy_runs table and its index
func (s *Store) Ensure(ctx context.Context, th connector.TableNames) error {
	for i, q := range s.dialect.GetEnsureStatements(th.ProxyRuns) {
		s.log().Debug("executing schema statement", "index", i+1, "sql", q)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure %s (statement %d): %w", th.ProxyRuns, i+1, err)
		}
	}
	return nil
}

// Record inserts one run
func (s *Store) Record(ctx context.Context, th connector.TableNames, run connector.Run) error {
	ranAt := run.RanAt
	if ranAt == "" {
		ranAt = s.dialect.ConvertTimeToStorage(time.Now()).(string)
	}
	marks := make([]string, 12)
	for i := range marks {
		marks[i] = s.dialect.Placeholder(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", th.ProxyRuns, runColumns, strings.Join(marks, ","))

	_, err := s.db.ExecContext(ctx, q,
		run.ID, run.Command, run.TargetURL, run.ExitCode, run.Outcome,
		run.HTTPStatus, run.ContentType, run.ElapsedMs,
		s.dialect.ConvertBoolToStorage(run.Success), run.Output, run.Error, ranAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	s.log().Debug("run recorded", "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

// List returns up to limit runs, newest first
func (s *Store) List(ctx context.Context, th connector.TableNames, limit int) ([]connector.Run, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq DESC LIMIT %s", runColumns, th.ProxyRuns, s.dialect.Placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []connector.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id, or connector.ErrRunNotFound
func (s *Store) Get(ctx context.Context, th connector.TableNames, id string) (*connector.Run, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", runColumns, th.ProxyRuns, s.dialect.Placeholder(1))
	run, err := scanRun(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connector.ErrRunNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*connector.Run, error) {
	var (
		run         connector.Run
		httpStatus  sql.NullInt64
		contentType sql.NullString
		elapsed     sql.NullInt64
		success     int64
		output      sql.NullString
		errText     sql.NullString
	)
	err := sc.Scan(&run.ID, &run.Command, &run.TargetURL, &run.ExitCode, &run.Outcome,
		&httpStatus, &contentType, &elapsed, &success, &output, &errText, &run.RanAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if httpStatus.Valid {
		v := int(httpStatus.Int64)
		run.HTTPStatus = &v
	}
	if contentType.Valid {
		run.ContentType = &contentType.String
	}
	if elapsed.Valid {
		run.ElapsedMs = &elapsed.Int64
	}
	if output.Valid {
		run.Output = &output.String
	}
	if errText.Valid {
		run.Error = &errText.String
	}
	run.Success = success != 0
	return &run, nil
}

// SetLogger replaces the logger used by the store
func (s *Store) SetLogger(l *common.Logger) {
	if l != nil {
		s.logger = l.WithStore("sqlite")
	}
}
