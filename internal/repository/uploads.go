package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/domain"
)

func (r *Repository) RecordUpload(ctx context.Context, upload domain.UploadLog) error {
	errorsJSON, err := json.Marshal(upload.Errors)
	if err != nil {
		return fmt.Errorf("marshal upload errors: %w", err)
	}
	if upload.Errors == nil {
		errorsJSON = []byte("[]")
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO csv_upload_log (id, user_id, file_name, file_type, total_rows, success_rows, error_rows, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		upload.ID,
		upload.UserID,
		upload.FileName,
		upload.FileType,
		upload.TotalRows,
		upload.SuccessRows,
		upload.ErrorRows,
		errorsJSON,
	); err != nil {
		return fmt.Errorf("record upload %q: %w", upload.FileName, err)
	}
	return nil
}

func (r *Repository) ListUploads(ctx context.Context, limit, offset int) ([]domain.UploadLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, file_name, file_type, total_rows, success_rows, error_rows, errors, created_at
		FROM csv_upload_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, normalizeLimit(limit), normalizeOffset(offset))
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]domain.UploadLog, 0)
	for rows.Next() {
		var (
			u          domain.UploadLog
			errorsJSON []byte
		)
		if err := rows.Scan(
			&u.ID, &u.UserID, &u.FileName, &u.FileType,
			&u.TotalRows, &u.SuccessRows, &u.ErrorRows,
			&errorsJSON, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if len(errorsJSON) > 0 {
			if err := json.Unmarshal(errorsJSON, &u.Errors); err != nil {
				return nil, fmt.Errorf("decode upload errors: %w", err)
			}
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}
