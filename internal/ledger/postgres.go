package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"truthchain/pkg/platform/sentinel"
)

var ledgerOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "truthchain_ledger_op_duration_seconds",
	Help:    "Latency of ledger store operations",
	Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"op"})

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// Postgres persists ledger records in PostgreSQL. Conditional writes map onto
// the database's per-row atomicity: INSERT .. ON CONFLICT DO NOTHING for
// write-if-absent, and a version-guarded UPDATE for compare-and-swap.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool, verifies connectivity, and ensures the
// schema exists.
func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &Postgres{db: db}
	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

// NewPostgresFromDB wraps an existing connection, used by integration tests.
func NewPostgresFromDB(db *sql.DB) (*Postgres, error) {
	store := &Postgres{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

func (s *Postgres) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_records (
			address    BYTEA PRIMARY KEY,
			namespace  TEXT NOT NULL,
			payload    JSONB NOT NULL,
			version    BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS ledger_records_namespace_idx
			ON ledger_records (namespace, created_at, address);
	`)
	return err
}

func (s *Postgres) Close() error { return s.db.Close() }

func (s *Postgres) Read(ctx context.Context, addr Address) (*Record, error) {
	start := time.Now()
	defer func() { ledgerOpDuration.WithLabelValues("read").Observe(time.Since(start).Seconds()) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT namespace, payload, version, created_at, updated_at
		FROM ledger_records WHERE address = $1`, addr.Bytes())

	rec := &Record{Address: addr}
	err := row.Scan(&rec.Namespace, &rec.Payload, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("read record", err)
	}
	return rec, nil
}

func (s *Postgres) WriteIfAbsent(ctx context.Context, rec *Record) (*Receipt, error) {
	start := time.Now()
	defer func() { ledgerOpDuration.WithLabelValues("write_if_absent").Observe(time.Since(start).Seconds()) }()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ledger_records (address, namespace, payload, version)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (address) DO NOTHING
		RETURNING created_at`, rec.Address.Bytes(), rec.Namespace, rec.Payload)

	var ts time.Time
	err := row.Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		// DO NOTHING fired: the address is occupied.
		return nil, sentinel.ErrConflict
	}
	if err != nil {
		return nil, unavailable("write record", err)
	}
	return &Receipt{TxRef: uuid.NewString(), Timestamp: ts}, nil
}

func (s *Postgres) Write(ctx context.Context, rec *Record, expectedVersion int64) (*Receipt, error) {
	start := time.Now()
	defer func() { ledgerOpDuration.WithLabelValues("write").Observe(time.Since(start).Seconds()) }()

	row := s.db.QueryRowContext(ctx, `
		UPDATE ledger_records
		SET payload = $1, version = version + 1, updated_at = now()
		WHERE address = $2 AND version = $3
		RETURNING updated_at`, rec.Payload, rec.Address.Bytes(), expectedVersion)

	var ts time.Time
	err := row.Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.classifyWriteMiss(ctx, rec.Address)
	}
	if err != nil {
		return nil, unavailable("update record", err)
	}
	return &Receipt{TxRef: uuid.NewString(), Timestamp: ts}, nil
}

// classifyWriteMiss distinguishes a vacant address from a lost version race.
func (s *Postgres) classifyWriteMiss(ctx context.Context, addr Address) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_records WHERE address = $1)`, addr.Bytes()).Scan(&exists)
	if err != nil {
		return unavailable("check record", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *Postgres) List(ctx context.Context, namespace string) ([]*Record, error) {
	start := time.Now()
	defer func() { ledgerOpDuration.WithLabelValues("list").Observe(time.Since(start).Seconds()) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT address, namespace, payload, version, created_at, updated_at
		FROM ledger_records
		WHERE namespace = $1
		ORDER BY created_at ASC, address ASC`, namespace)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		var addr []byte
		if err := rows.Scan(&addr, &rec.Namespace, &rec.Payload, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, unavailable("scan record", err)
		}
		copy(rec.Address[:], addr)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate records", err)
	}
	return out, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrUnavailable)
}
