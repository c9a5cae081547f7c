package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dhruvc/stylefeed/internal/database"
	"github.com/dhruvc/stylefeed/internal/model"
)

// PostRepo persists posts together with their media references, likes and
// comments.  Domain decisions (like toggling, comment visibility) are made
// on the in-memory model.Post; this layer only loads and stores.
type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

// Create inserts a post and its media references in one transaction.
func (r *PostRepo) Create(ctx context.Context, authorID uint64, content string, mediaIDs []uint64) (uint64, error) {
	var postID uint64
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO posts (author_id, content) VALUES (?,?)", authorID, content)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		postID = uint64(id)
		for _, mid := range mediaIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO post_media (post_id, media_id) VALUES (?,?)", postID, mid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return postID, nil
}

// GetByID loads a post with its media ids, likes and comments.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (model.Post, error) {
	var p model.Post
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, author_id, content, created_at, updated_at FROM posts WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.MediaIDs, err = r.mediaIDs(ctx, id); err != nil {
		return p, err
	}
	if p.Likes, err = r.likes(ctx, id, "post_likes"); err != nil {
		return p, err
	}
	if p.Shares, err = r.likes(ctx, id, "post_shares"); err != nil {
		return p, err
	}
	if p.Comments, err = r.comments(ctx, id); err != nil {
		return p, err
	}
	return p, nil
}

func (r *PostRepo) mediaIDs(ctx context.Context, postID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT media_id FROM post_media WHERE post_id=? ORDER BY media_id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// likes reads one of the (post_id, user_id, created_at) association tables;
// post_likes and post_shares share the shape.
func (r *PostRepo) likes(ctx context.Context, postID uint64, table string) ([]model.Like, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, created_at FROM "+table+" WHERE post_id=?", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Like
	for rows.Next() {
		var l model.Like
		if err := rows.Scan(&l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostRepo) comments(ctx context.Context, postID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, post_id, parent_id, author_id, content, deleted, created_at FROM comments WHERE post_id=? ORDER BY id",
		postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.Deleted, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	likes, err := r.commentLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Likes = likes[out[i].ID]
	}
	return out, nil
}

// commentLikes loads the likes for every comment of one post in a single
// query, keyed by comment id.
func (r *PostRepo) commentLikes(ctx context.Context, postID uint64) (map[uint64][]model.Like, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT cl.comment_id, cl.user_id, cl.created_at
		 FROM comment_likes cl
		 JOIN comments c ON c.id = cl.comment_id
		 WHERE c.post_id = ?`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64][]model.Like{}
	for rows.Next() {
		var commentID uint64
		var l model.Like
		if err := rows.Scan(&commentID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out[commentID] = append(out[commentID], l)
	}
	return out, rows.Err()
}

// GetComment loads one comment with its likes.
func (r *PostRepo) GetComment(ctx context.Context, id uint64) (model.Comment, error) {
	var c model.Comment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, post_id, parent_id, author_id, content, deleted, created_at FROM comments WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.Deleted, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, created_at FROM comment_likes WHERE comment_id=?", id)
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.Like
		if err := rows.Scan(&l.UserID, &l.CreatedAt); err != nil {
			return c, err
		}
		c.Likes = append(c.Likes, l)
	}
	return c, rows.Err()
}

// SetLiked persists the outcome of model.Post.ToggleLike: inserts the like
// row when liked, deletes it otherwise.  The insert ignores duplicates so a
// repeated toggle in a race settles on the same state.
func (r *PostRepo) SetLiked(ctx context.Context, postID, userID uint64, liked bool) error {
	if liked {
		_, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO post_likes (post_id, user_id) VALUES (?,?)", postID, userID)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM post_likes WHERE post_id=? AND user_id=?", postID, userID)
	return err
}

// SetCommentLiked persists the outcome of model.Comment.ToggleLike, the
// same way SetLiked does for posts.
func (r *PostRepo) SetCommentLiked(ctx context.Context, commentID, userID uint64, liked bool) error {
	if liked {
		_, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO comment_likes (comment_id, user_id) VALUES (?,?)", commentID, userID)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM comment_likes WHERE comment_id=? AND user_id=?", commentID, userID)
	return err
}

// AddShare records that a user shared a post.  Sharing is idempotent: a
// second share by the same user leaves the count unchanged.
func (r *PostRepo) AddShare(ctx context.Context, postID, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO post_shares (post_id, user_id) VALUES (?,?)", postID, userID)
	return err
}

// AddComment inserts a comment or, when parentID is non-nil, a reply.
func (r *PostRepo) AddComment(ctx context.Context, postID uint64, parentID *uint64, authorID uint64, content string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (post_id, parent_id, author_id, content) VALUES (?,?,?,?)",
		postID, parentID, authorID, content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// MarkCommentDeleted soft-deletes a comment so reply threads keep shape.
// Only the comment's author may delete it.
func (r *PostRepo) MarkCommentDeleted(ctx context.Context, commentID, authorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET deleted=1 WHERE id=? AND author_id=?", commentID, authorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// ListByAuthor returns the author's posts, newest first, without the
// per-post like and comment collections.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uint64, limit int) ([]model.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, author_id, content, created_at, updated_at FROM posts WHERE author_id=? ORDER BY created_at DESC LIMIT ?",
		authorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
