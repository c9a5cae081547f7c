package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dhruvc/stylefeed/internal/database"
	"github.com/dhruvc/stylefeed/internal/model"
)

// UserRepo persists users and their profiles.  The two tables are written
// together inside one transaction at registration so an account never
// exists without its profile.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, google_id, facebook_id, instagram_id, coins, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.FacebookID,
		&u.InstagramID, &u.Coins, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// CreateWithProfile inserts a user row and its profile row atomically.
// passwordHash may be nil for social-only accounts, and the provider id
// pointers carry the subject ids assigned by social providers.  Uniqueness
// of email and username is reported through the corresponding sentinels.
func (r *UserRepo) CreateWithProfile(ctx context.Context, email string, passwordHash *string, username string, googleID, facebookID, instagramID *string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var userID uint64
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (email, password_hash, google_id, facebook_id, instagram_id) VALUES (?,?,?,?,?)",
			email, passwordHash, googleID, facebookID, instagramID)
		if err != nil {
			if isDuplicate(err) {
				return ErrEmailExists
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		userID = uint64(id)
		_, err = tx.ExecContext(ctx,
			"INSERT INTO profiles (user_id, username, display_name) VALUES (?,?,?)",
			userID, strings.ToLower(strings.TrimSpace(username)), strings.TrimSpace(username))
		if err != nil {
			if isDuplicate(err) {
				return ErrUsernameExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetProfileByUserID loads the profile owned by the user.
func (r *UserRepo) GetProfileByUserID(ctx context.Context, userID uint64) (model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, username, display_name, picture, created_at, updated_at FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.ID, &p.UserID, &p.Username, &p.DisplayName, &p.Picture, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// UpdateProfile sets the mutable profile fields.  The owning user and the
// coin balance are deliberately not updatable through this path.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uint64, username, picture string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET username=?, display_name=?, picture=? WHERE user_id=?",
		strings.ToLower(strings.TrimSpace(username)), strings.TrimSpace(username), picture, userID)
	if err != nil {
		if isDuplicate(err) {
			return ErrUsernameExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// SetProviderID stores the social subject id for an existing account.
// provider must be one of google, facebook, instagram.
func (r *UserRepo) SetProviderID(ctx context.Context, userID uint64, provider, providerID string) error {
	var column string
	switch provider {
	case "google":
		column = "google_id"
	case "facebook":
		column = "facebook_id"
	case "instagram":
		column = "instagram_id"
	default:
		return ErrNotFound
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+column+"=? WHERE id=?", providerID, userID)
	return err
}

// TransferCoins moves amount coins from one user to another in a single
// transaction.  Either both balances change or neither does.  The sender
// row is locked first so concurrent transfers cannot overdraw.
func (r *UserRepo) TransferCoins(ctx context.Context, fromID, toID uint64, amount int64) error {
	if amount <= 0 {
		return ErrInsufficientCoins
	}
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var balance int64
		err := tx.QueryRowContext(ctx,
			"SELECT coins FROM users WHERE id=? FOR UPDATE", fromID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientCoins
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET coins = coins - ? WHERE id=?", amount, fromID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET coins = coins + ? WHERE id=?", amount, toID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err == nil && n == 0 {
			return ErrNotFound
		}
		return err
	})
}
