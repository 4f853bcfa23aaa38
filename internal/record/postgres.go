package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_applications (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL DEFAULT '',
	salary                NUMERIC(14, 2) NOT NULL DEFAULT 0,
	federal_tax           NUMERIC(14, 2) NOT NULL DEFAULT 0,
	social_security_tax   NUMERIC(14, 2) NOT NULL DEFAULT 0,
	medicare_tax          NUMERIC(14, 2) NOT NULL DEFAULT 0,
	take_home_pay_yearly  NUMERIC(14, 2) NOT NULL DEFAULT 0,
	take_home_pay_monthly NUMERIC(14, 2) NOT NULL DEFAULT 0,
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectRecord = `
	SELECT id, name, salary, federal_tax, social_security_tax, medicare_tax,
	       take_home_pay_yearly, take_home_pay_monthly, updated_at
	FROM job_applications
	WHERE id = $1
`

const upsertRecord = `
	INSERT INTO job_applications (id, name, salary, federal_tax, social_security_tax,
	                              medicare_tax, take_home_pay_yearly, take_home_pay_monthly, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		salary = EXCLUDED.salary,
		federal_tax = EXCLUDED.federal_tax,
		social_security_tax = EXCLUDED.social_security_tax,
		medicare_tax = EXCLUDED.medicare_tax,
		take_home_pay_yearly = EXCLUDED.take_home_pay_yearly,
		take_home_pay_monthly = EXCLUDED.take_home_pay_monthly,
		updated_at = now()
	RETURNING updated_at
`

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects to the database at dsn and creates the records table
// if it does not exist.
func OpenPostgres(ctx context.Context, logger *zap.Logger, dsn string, maxOpenConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := NewPostgresStore(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the records table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create job_applications table: %w", err)
	}
	return nil
}

// Get retrieves a record by its ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	s.logger.Debug("fetching record",
		zap.String("op", "record.Get"),
		zap.String("id", id),
	)

	var r Record
	err := s.db.QueryRowContext(ctx, selectRecord, id).Scan(
		&r.ID,
		&r.Name,
		&r.Salary,
		&r.FederalTax,
		&r.SocialSecurityTax,
		&r.MedicareTax,
		&r.TakeHomeYearly,
		&r.TakeHomeMonthly,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to fetch record",
			zap.String("op", "record.Get"),
			zap.String("id", id),
			zap.Error(err),
		)
		return Record{}, err
	}
	return r, nil
}

// Save inserts or updates a record and returns it as stored.
func (s *PostgresStore) Save(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		return Record{}, errors.New("record ID is required")
	}

	err := s.db.QueryRowContext(ctx, upsertRecord,
		r.ID,
		r.Name,
		r.Salary,
		r.FederalTax,
		r.SocialSecurityTax,
		r.MedicareTax,
		r.TakeHomeYearly,
		r.TakeHomeMonthly,
	).Scan(&r.UpdatedAt)
	if err != nil {
		s.logger.Error("failed to save record",
			zap.String("op", "record.Save"),
			zap.String("id", r.ID),
			zap.Error(err),
		)
		return Record{}, err
	}

	s.logger.Info("record saved",
		zap.String("op", "record.Save"),
		zap.String("id", r.ID),
		zap.Float64("salary", r.Salary),
	)
	return r, nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
