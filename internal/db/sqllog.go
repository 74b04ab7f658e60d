package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

var errDirectOpen = errors.New("db: open the logging driver through sql.OpenDB(NewLoggingConnector(...))")

// NewLoggingConnector returns a sqlite3 connector whose statements are logged
// at debug with their arguments and duration. A nil logger means slog.Default().
func NewLoggingConnector(dsn string, logger *slog.Logger) (driver.Connector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &logConnector{dsn: dsn, logger: logger}, nil
}

type logConnector struct {
	dsn    string
	logger *slog.Logger
}

func (c *logConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &logConn{Conn: conn, logger: c.logger}, nil
}

func (c *logConnector) Driver() driver.Driver { return logDriver{} }

type logDriver struct{}

func (logDriver) Open(string) (driver.Conn, error) { return nil, errDirectOpen }

type logConn struct {
	driver.Conn
	logger *slog.Logger
}

func (c *logConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *logConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if p, ok := c.Conn.(driver.ConnPrepareContext); ok {
		stmt, err = p.PrepareContext(ctx, query)
	} else {
		stmt, err = c.Conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &logStmt{Stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *logConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 fallback for drivers without BeginTx
	return c.Conn.Begin()
}

type logStmt struct {
	driver.Stmt
	query  string
	logger *slog.Logger
}

func (s *logStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	var (
		res driver.Result
		err error
	)
	if e, ok := s.Stmt.(driver.StmtExecContext); ok {
		res, err = e.ExecContext(ctx, args)
	} else {
		//nolint:staticcheck // SA1019 fallback for statements without ExecContext
		res, err = s.Stmt.Exec(plainValues(args))
	}
	s.log(ctx, "exec", args, start, err)
	return res, err
}

func (s *logStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	start := time.Now()
	var (
		rows driver.Rows
		err  error
	)
	if q, ok := s.Stmt.(driver.StmtQueryContext); ok {
		rows, err = q.QueryContext(ctx, args)
	} else {
		//nolint:staticcheck // SA1019 fallback for statements without QueryContext
		rows, err = s.Stmt.Query(plainValues(args))
	}
	s.log(ctx, "query", args, start, err)
	return rows, err
}

func (s *logStmt) log(ctx context.Context, op string, args []driver.NamedValue, start time.Time, err error) {
	attrs := []any{
		"op", op,
		"sql", s.query,
		"args", formatArgs(args),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.DebugContext(ctx, "sql", attrs...)
}

func plainValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

func formatArgs(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		v := "NULL"
		switch t := a.Value.(type) {
		case nil:
		case []byte:
			v = string(t)
		default:
			v = fmt.Sprint(t)
		}
		if a.Name != "" {
			v = a.Name + "=" + v
		}
		out[i] = v
	}
	return out
}
