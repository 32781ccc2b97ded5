package connector

import (
	"context"
	"database/sql"
	"errors"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the proxy_runs table. Output and Error are nil unless
// the store was configured to keep them.
type Run struct {
	ID          string  `json:"id"`
	Command     string  `json:"command"`
	TargetURL   string  `json:"targetUrl"`
	ExitCode    int     `json:"exitCode"`
	Outcome     string  `json:"outcome"`
	HTTPStatus  *int    `json:"httpStatusCode,omitempty"`
	ContentType *string `json:"contentType,omitempty"`
	ElapsedMs   *int64  `json:"executionTimeMs,omitempty"`
	Success     bool    `json:"success"`
	Output      *string `json:"output,omitempty"`
	Error       *string `json:"error,omitempty"`
	RanAt       string  `json:"ranAt"` // RFC3339Nano, UTC
}

// TableNames holds the (already validated) table identifiers
type TableNames struct {
	ProxyRuns string
}

// Connector is implemented by each database backend
type Connector interface {
	Connect() (*sql.DB, error)
	Validate() error
	Load(config map[string]interface{}) error
	Ensure(ctx context.Context, th TableNames) error
	Record(ctx context.Context, th TableNames, run Run) error
	// List returns the newest runs first, at most limit of them
	List(ctx context.Context, th TableNames, limit int) ([]Run, error)
	Get(ctx context.Context, th TableNames, id string) (*Run, error)
	Close() error
}
