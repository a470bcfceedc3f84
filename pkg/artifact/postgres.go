// pkg/artifact/postgres.go
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rajansavani/csv-cleaner/pkg/executor"
)

// PostgresSettings configures the execution-log database connection.
type PostgresSettings struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to Postgres and verifies the connection.
func OpenPostgres(ctx context.Context, settings PostgresSettings, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DSN == "" {
		return nil, errors.New("postgres DSN cannot be empty")
	}

	logger.Info("connecting to postgres")
	db, err := sqlx.Open("postgres", settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if settings.MaxOpenConns > 0 {
		db.SetMaxOpenConns(settings.MaxOpenConns)
	}
	if settings.MaxIdleConns > 0 {
		db.SetMaxIdleConns(settings.MaxIdleConns)
	}
	if settings.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(settings.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// PGRecorder persists per-step execution log rows into a cleaning_log
// table, one row per executed step.
type PGRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPGRecorder wraps an open connection and ensures the tracking
// table exists.
func NewPGRecorder(db *sqlx.DB, logger *zap.Logger) (*PGRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &PGRecorder{db: db, logger: logger}
	if err := r.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning_log table: %w", err)
	}
	return r, nil
}

func (r *PGRecorder) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.cleaning_log (
			id SERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			op TEXT NOT NULL,
			columns TEXT NOT NULL,
			rows_affected INTEGER NOT NULL,
			values_changed INTEGER NOT NULL,
			description TEXT NOT NULL,
			recorded_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("ensured cleaning_log table exists")
	return nil
}

// logRow is the named-parameter shape of one cleaning_log insert.
type logRow struct {
	JobID         string `db:"job_id"`
	StepIndex     int    `db:"step_index"`
	Op            string `db:"op"`
	Columns       string `db:"columns"`
	RowsAffected  int    `db:"rows_affected"`
	ValuesChanged int    `db:"values_changed"`
	Description   string `db:"description"`
}

// RecordLog inserts one row per log entry inside a single transaction.
func (r *PGRecorder) RecordLog(ctx context.Context, jobID string, log []executor.LogEntry) error {
	if len(log) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return &StoreError{Artifact: "log", JobID: jobID, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	const insertSQL = `
		INSERT INTO public.cleaning_log
		(job_id, step_index, op, columns, rows_affected, values_changed, description)
		VALUES (:job_id, :step_index, :op, :columns, :rows_affected, :values_changed, :description)
	`
	for _, entry := range log {
		row := logRow{
			JobID:         jobID,
			StepIndex:     entry.StepIndex,
			Op:            string(entry.Op),
			Columns:       joinColumns(entry.Columns),
			RowsAffected:  entry.RowsAffected,
			ValuesChanged: entry.ValuesChanged,
			Description:   entry.Description,
		}
		if _, err = tx.NamedExecContext(ctx, insertSQL, row); err != nil {
			return &StoreError{Artifact: "log", JobID: jobID, Err: fmt.Errorf("failed to insert log entry: %w", err)}
		}
	}

	if err = tx.Commit(); err != nil {
		return &StoreError{Artifact: "log", JobID: jobID, Err: fmt.Errorf("failed to commit transaction: %w", err)}
	}

	r.logger.Info("recorded execution log",
		zap.String("job_id", jobID),
		zap.Int("entries", len(log)))
	return nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ",")
}
