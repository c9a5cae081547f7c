package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetCommentLoadsLikes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, post_id, parent_id, author_id, content, deleted, created_at FROM comments").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "parent_id", "author_id", "content", "deleted", "created_at"}).
			AddRow(7, 3, nil, 5, "nice shot", false, now))
	mock.ExpectQuery("SELECT user_id, created_at FROM comment_likes").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}).
			AddRow(11, now).
			AddRow(12, now))

	repo := NewPostRepo(db)
	cm, err := repo.GetComment(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetComment: %v", err)
	}
	if cm.LikeCount() != 2 {
		t.Fatalf("expected 2 likes, got %d", cm.LikeCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetCommentLiked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT IGNORE INTO comment_likes").
		WithArgs(uint64(7), uint64(11)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM comment_likes").
		WithArgs(uint64(7), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostRepo(db)
	if err := repo.SetCommentLiked(context.Background(), 7, 11, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := repo.SetCommentLiked(context.Background(), 7, 11, false); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
