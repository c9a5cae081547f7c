package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dhruvc/stylefeed/internal/database"
	"github.com/dhruvc/stylefeed/internal/model"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 hash of a secret is
// stored; since the hash is deterministic it also serves as the unique
// lookup key, so no plaintext index is ever needed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id, user_id, token_hash, created_by_ip, user_agent, expires_at, revoked_at, created_at"

// Create inserts a refresh token row keyed by the secret's hash.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, tokenHash, ip, userAgent string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, created_by_ip, user_agent, expires_at) VALUES (?,?,?,?,?)",
		userID, tokenHash, ip, userAgent, exp)
	return err
}

// CreateTx is Create inside a caller-owned transaction, used by the refresh
// rotation so revoking the old token and storing the new one commit
// together.
func (r *TokenRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, tokenHash, ip, userAgent string, exp time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, created_by_ip, user_agent, expires_at) VALUES (?,?,?,?,?)",
		userID, tokenHash, ip, userAgent, exp)
	return err
}

// FindByHash loads a refresh token row by its hash, revoked or not.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedByIP, &t.UserAgent,
		&t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// ClaimTx marks the token revoked iff it is still active and unexpired,
// inside the caller's transaction.  The single guarded UPDATE is what makes
// rotation race-safe: of two concurrent refresh calls with the same secret,
// exactly one affects a row and wins; the loser sees zero rows and must
// treat the secret as already spent.
func (r *TokenRepo) ClaimTx(ctx context.Context, tx *sql.Tx, tokenHash string) (uint64, error) {
	var userID uint64
	err := tx.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE",
		tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Row exists but is revoked or expired: replay or stale secret.
		return 0, ErrNotFound
	}
	return userID, nil
}

// Rotate atomically spends the old secret and stores the new one: the
// revoke and the insert commit together or not at all.  Returns the owning
// user id, or ErrNotFound when the old secret is unknown, revoked, expired
// or already claimed by a concurrent rotation.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash, ip, userAgent string, exp time.Time) (uint64, error) {
	var userID uint64
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		uid, err := r.ClaimTx(ctx, tx, oldHash)
		if err != nil {
			return err
		}
		userID = uid
		return r.CreateTx(ctx, tx, uid, newHash, ip, userAgent, exp)
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByID marks one token as revoked.
func (r *TokenRepo) RevokeByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL", id)
	return err
}

// ListActiveByUser returns the user's unrevoked, unexpired tokens.  Logout
// scans this bounded set to find the row matching the presented secret.
func (r *TokenRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE user_id=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RefreshToken
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedByIP, &t.UserAgent,
			&t.ExpiresAt, &t.RevokedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountByUser reports how many refresh tokens the user has ever been
// issued, revoked or not.  Logout uses it to distinguish "no tokens at
// all" from "none matched".
func (r *TokenRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// DeleteExpired hard-deletes every token past its lifetime, revoked or not.
// It returns the number of rows removed.  Runs once at startup and then on
// the daily sweep.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
