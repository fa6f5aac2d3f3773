package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Log is one audit row for a generated export. StoragePath locates the
// artifact in the object store after the signed link expires.
type Log struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	Format      Format    `json:"format"`
	StoragePath string    `json:"storage_path"`
	Filename    string    `json:"filename"`
	CreatedAt   time.Time `json:"created_at"`
}

// LogRepository records generated exports in PostgreSQL.
type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Record inserts an audit row for a generated export.
func (r *LogRepository) Record(ctx context.Context, log *Log) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	query := `
		INSERT INTO export_logs (id, user_id, project_id, format, storage_path, filename)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.ID,
		log.UserID,
		log.ProjectID,
		string(log.Format),
		log.StoragePath,
		log.Filename,
	).Scan(&log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// ListByProject returns the export history of a project, newest first.
func (r *LogRepository) ListByProject(ctx context.Context, userID, projectID string) ([]Log, error) {
	query := `
		SELECT id, user_id, project_id, format, storage_path, filename, created_at
		FROM export_logs
		WHERE user_id = $1 AND project_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		var format string
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProjectID, &format, &l.StoragePath, &l.Filename, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		l.Format = Format(format)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export rows: %w", err)
	}
	return logs, nil
}
