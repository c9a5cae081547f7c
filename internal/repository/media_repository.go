package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dhruvc/stylefeed/internal/model"
)

// MediaRepo persists metadata for files living in object storage.
type MediaRepo struct{ DB *sql.DB }

func NewMediaRepo(db *sql.DB) *MediaRepo { return &MediaRepo{DB: db} }

// Create records an uploaded object and returns the media id.
func (r *MediaRepo) Create(ctx context.Context, userID uint64, mediaType model.MediaType, objectKey string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO media (user_id, type, object_key) VALUES (?,?,?)",
		userID, string(mediaType), objectKey)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID loads one media row.
func (r *MediaRepo) GetByID(ctx context.Context, id uint64) (model.Media, error) {
	var m model.Media
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, type, object_key, created_at FROM media WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.UserID, &m.Type, &m.ObjectKey, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}
