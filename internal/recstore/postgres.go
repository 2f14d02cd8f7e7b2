package recstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists loan recommendations in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loan_recommendations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			destination_country TEXT NOT NULL,
			student_details JSONB NOT NULL,
			recommendation TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_loan_recommendations_dest_created
			ON loan_recommendations (destination_country, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindSimilar(ctx context.Context, details map[string]any) ([]Record, error) {
	dest := destinationOf(details)

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, student_details, recommendation, metadata, created_at
		 FROM loan_recommendations
		 WHERE ($1 = '' OR lower(destination_country) = lower($1))
		 ORDER BY created_at DESC LIMIT $2`,
		dest,
		findSimilarLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("query similar recommendations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r            Record
			detailsJSON  []byte
			metadataJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &detailsJSON, &r.Recommendation, &metadataJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation row: %w", err)
		}
		if err := json.Unmarshal(detailsJSON, &r.StudentDetails); err != nil {
			return nil, fmt.Errorf("decode student details: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation rows: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) Store(ctx context.Context, details map[string]any, recommendation string, metadata map[string]string) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode student details: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO loan_recommendations (id, user_id, destination_country, student_details, recommendation, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(),
		metadata["user_id"],
		destinationOf(details),
		detailsJSON,
		recommendation,
		metadataJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store recommendation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
