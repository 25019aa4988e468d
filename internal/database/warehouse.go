package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aristath/smartwealth/internal/domain"
)

// Driver identifies a supported warehouse backend
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// ParseDriver validates a driver name from configuration
func ParseDriver(name string) (Driver, error) {
	switch d := Driver(name); d {
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return d, nil
	default:
		return "", &domain.ConfigError{Field: "WAREHOUSE_DRIVER", Reason: fmt.Sprintf("unsupported driver %q", name)}
	}
}

// sqlDriverName maps a backend to its registered database/sql driver
func (d Driver) sqlDriverName() string {
	switch d {
	case DriverPostgres:
		return "pgx"
	case DriverMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// WarehouseConfig holds warehouse connection settings
type WarehouseConfig struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
}

// Warehouse executes parameterized read queries against the dataset warehouse
type Warehouse struct {
	conn   *sql.DB
	driver Driver
}

// OpenWarehouse connects to the configured warehouse and verifies the connection
func OpenWarehouse(ctx context.Context, cfg WarehouseConfig) (*Warehouse, error) {
	if cfg.DSN == "" {
		return nil, &domain.ConfigError{Field: "WAREHOUSE_DSN", Reason: "must not be empty"}
	}

	conn, err := sql.Open(cfg.Driver.sqlDriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s warehouse: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen / 2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s warehouse: %w", cfg.Driver, err)
	}

	return &Warehouse{conn: conn, driver: cfg.Driver}, nil
}

// NewWarehouse wraps an existing connection
func NewWarehouse(conn *sql.DB, driver Driver) *Warehouse {
	return &Warehouse{conn: conn, driver: driver}
}

func (w *Warehouse) Driver() Driver { return w.driver }

// Close closes the warehouse connection
func (w *Warehouse) Close() error {
	return w.conn.Close()
}

// Ping verifies the warehouse is reachable
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.conn.PingContext(ctx)
}

// Query runs a parameterized statement and returns column names and rows.
// Byte slices are converted to strings; every other value is returned as
// the driver produced it.
func (w *Warehouse) Query(ctx context.Context, query string, args ...interface{}) ([]string, []domain.Row, error) {
	rows, err := w.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []domain.Row
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return columns, out, nil
}
