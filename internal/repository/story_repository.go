package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dhruvc/stylefeed/internal/model"
)

// StoryRepo persists ephemeral stories, their reactions and view records.
type StoryRepo struct{ DB *sql.DB }

func NewStoryRepo(db *sql.DB) *StoryRepo { return &StoryRepo{DB: db} }

// Create inserts a story expiring model.StoryTTL after now.
func (r *StoryRepo) Create(ctx context.Context, authorID, mediaID uint64, caption string) (uint64, error) {
	exp := time.Now().UTC().Add(model.StoryTTL)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO stories (author_id, media_id, caption, expires_at) VALUES (?,?,?,?)",
		authorID, mediaID, caption, exp)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID loads a story with reactions and viewer ids.  Expired stories are
// reported as not found; the sweep removes their rows later.
func (r *StoryRepo) GetByID(ctx context.Context, id uint64) (model.Story, error) {
	var s model.Story
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, author_id, media_id, caption, expires_at, created_at FROM stories WHERE id=? AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		id).Scan(&s.ID, &s.AuthorID, &s.MediaID, &s.Caption, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, reaction, created_at FROM story_reactions WHERE story_id=?", id)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var re model.Reaction
		if err := rows.Scan(&re.UserID, &re.Reaction, &re.CreatedAt); err != nil {
			return s, err
		}
		s.Reactions = append(s.Reactions, re)
	}
	if err := rows.Err(); err != nil {
		return s, err
	}
	vrows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM story_views WHERE story_id=?", id)
	if err != nil {
		return s, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var uid uint64
		if err := vrows.Scan(&uid); err != nil {
			return s, err
		}
		s.Viewers = append(s.Viewers, uid)
	}
	return s, vrows.Err()
}

// SetReaction upserts the user's single reaction on a story.
func (r *StoryRepo) SetReaction(ctx context.Context, storyID, userID uint64, reaction model.ReactionType) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO story_reactions (story_id, user_id, reaction) VALUES (?,?,?) ON DUPLICATE KEY UPDATE reaction=VALUES(reaction), created_at=UTC_TIMESTAMP()",
		storyID, userID, string(reaction))
	return err
}

// RemoveReaction deletes the user's reaction, if any.
func (r *StoryRepo) RemoveReaction(ctx context.Context, storyID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM story_reactions WHERE story_id=? AND user_id=?", storyID, userID)
	return err
}

// AddView records that a user saw the story; repeat views are ignored.
func (r *StoryRepo) AddView(ctx context.Context, storyID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO story_views (story_id, user_id) VALUES (?,?)", storyID, userID)
	return err
}

// ListActiveByAuthor returns the author's unexpired stories, oldest first.
func (r *StoryRepo) ListActiveByAuthor(ctx context.Context, authorID uint64) ([]model.Story, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, author_id, media_id, caption, expires_at, created_at FROM stories WHERE author_id=? AND expires_at > UTC_TIMESTAMP() ORDER BY created_at",
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Story
	for rows.Next() {
		var s model.Story
		if err := rows.Scan(&s.ID, &s.AuthorID, &s.MediaID, &s.Caption, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired removes stories past their expiry along with their
// reactions and views, and returns how many stories were deleted.
func (r *StoryRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE sr FROM story_reactions sr JOIN stories s ON s.id=sr.story_id WHERE s.expires_at <= UTC_TIMESTAMP()"); err != nil {
		return 0, err
	}
	if _, err := r.DB.ExecContext(ctx,
		"DELETE sv FROM story_views sv JOIN stories s ON s.id=sv.story_id WHERE s.expires_at <= UTC_TIMESTAMP()"); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM stories WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
