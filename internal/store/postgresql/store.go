package postgresql

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

// NewStore creates a new PostgreSQL store
func NewStore() *Store {
	return &Store{
		dialect: NewDialect(),
		logger:  common.GetLogger().WithStore("postgresql"),
	}
}

// SetLogger replaces the logger used by the store
func (p *Store) SetLogger(l *common.Logger) {
	if l != nil {
		p.logger = l.WithStore("postgresql")
	}
}

func (p *Store) log() *common.Logger {
	if p.logger == nil {
		p.logger = common.NewDiscardLogger()
	}
	return p.logger
}

// Load loads configuration into the PostgreSQL store
func (p *Store) Load(config map[string]interface{}) error {
	if dsn, ok := config["dsn"].(string); ok && dsn != "" {
		p.DSN = dsn
	}
	return nil
}

// Validate requires a DSN
func (p *Store) Validate() error {
	if strings.TrimSpace(p.DSN) == "" {
		return errors.New("postgresql store requires dsn or host")
	}
	return nil
}

// Connect establishes a connection to PostgreSQL
func (p *Store) Connect() (*sql.DB, error) {
	db, err := p.dialect.Connect(p.DSN)
	if err != nil {
		return nil, err
	}
	p.db = db
	p.log().Info("PostgreSQL database connection established successfully")
	return db, nil
}

// Close closes the database connection
func (p *Store) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ensure creates the proxy_runs table and its index
func (p *Store) Ensure(ctx context.Context, th connector.TableNames) error {
	for i, q := range p.dialect.GetEnsureStatements(th.ProxyRuns) {
		p.log().Debug("executing schema statement", "index", i+1, "sql", q)
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure %s (statement %d): %w", th.ProxyRuns, i+1, err)
		}
	}
	return nil
}

// Record inserts one run
func (p *Store) Record(ctx context.Context, th connector.TableNames, run connector.Run) error {
	ranAt := time.Now().UTC()
	if run.RanAt != "" {
		t, err := time.Parse(time.RFC3339Nano, run.RanAt)
		if err != nil {
			return fmt.Errorf("invalid ran_at %q: %w", run.RanAt, err)
		}
		ranAt = t
	}
	marks := make([]string, 12)
	for i := range marks {
		marks[i] = p.dialect.Placeholder(i + 1)
	}
	// #nosec G201 -- only the validated table name is interpolated; all values use bind parameters
	q := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", th.ProxyRuns, runColumns, strings.Join(marks, ","))

	_, err := p.db.ExecContext(ctx, q,
		run.ID, run.Command, run.TargetURL, run.ExitCode, run.Outcome,
		run.HTTPStatus, run.ContentType, run.ElapsedMs,
		run.Success, run.Output, run.Error, ranAt)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	p.log().Debug("run recorded", "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

// List returns up to limit runs, newest first
func (p *Store) List(ctx context.Context, th connector.TableNames, limit int) ([]connector.Run, error) {
	// #nosec G201 -- validated table identifier; limit is a bind parameter
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq DESC LIMIT %s", runColumns, th.ProxyRuns, p.dialect.Placeholder(1))
	rows, err := p.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []connector.Run
	for rows.Next() {
		run, err := p.scanRun(rows)
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
func (p *Store) Get(ctx context.Context, th connector.TableNames, id string) (*connector.Run, error) {
	// #nosec G201 -- validated table identifier; id is a bind parameter
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", runColumns, th.ProxyRuns, p.dialect.Placeholder(1))
	run, err := p.scanRun(p.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, connector.ErrRunNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (p *Store) scanRun(sc scanner) (*connector.Run, error) {
	var (
		run         connector.Run
		httpStatus  sql.NullInt64
		contentType sql.NullString
		elapsed     sql.NullInt64
		output      sql.NullString
		errText     sql.NullString
		ranAt       time.Time
	)
	err := sc.Scan(&run.ID, &run.Command, &run.TargetURL, &run.ExitCode, &run.Outcome,
		&httpStatus, &contentType, &elapsed, &run.Success, &output, &errText, &ranAt)
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
	run.RanAt = p.dialect.ConvertTimeFromStorage(ranAt)
	return &run, nil
}
