package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dhruvc/stylefeed/internal/database"
	"github.com/dhruvc/stylefeed/internal/model"
)

// ContestRepo persists contests, submissions and votes.  The contest seed
// is write-once: Create stores it and no update statement in this file
// ever touches the column.  UpdateDetails additionally verifies the caller
// is not trying to smuggle a different seed through.
type ContestRepo struct{ DB *sql.DB }

func NewContestRepo(db *sql.DB) *ContestRepo { return &ContestRepo{DB: db} }

const contestColumns = "id, title, description, type, status, start_date, submission_end_date, voting_end_date, archive_date, number, year, seed, created_at, updated_at"

func scanContest(scan func(dest ...any) error) (model.Contest, error) {
	var c model.Contest
	err := scan(&c.ID, &c.Title, &c.Description, &c.Type, &c.Status,
		&c.StartDate, &c.SubmissionEndDate, &c.VotingEndDate, &c.ArchiveDate,
		&c.Number, &c.Year, &c.Seed, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// NextNumber returns the next sequential contest number for a (type, year)
// scope, starting at 1.
func (r *ContestRepo) NextNumber(ctx context.Context, t model.ContestType, year int) (uint32, error) {
	var n uint32
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(number),0)+1 FROM contests WHERE type=? AND year=?",
		string(t), year).Scan(&n)
	return n, err
}

// Create inserts a contest, assigning its sequential number inside the
// insert transaction so concurrent creations in the same (type, year)
// scope cannot collide.  The contest's seed must already be set; it is
// persisted here once and never written again.
func (r *ContestRepo) Create(ctx context.Context, c *model.Contest) error {
	if c.Seed == "" {
		return errors.New("contest seed must be set before create")
	}
	c.Year = c.StartDate.UTC().Year()
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var n uint32
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(number),0)+1 FROM contests WHERE type=? AND year=? FOR UPDATE",
			string(c.Type), c.Year).Scan(&n)
		if err != nil {
			return err
		}
		c.Number = n
		res, err := tx.ExecContext(ctx,
			`INSERT INTO contests (title, description, type, status, start_date, submission_end_date, voting_end_date, archive_date, number, year, seed)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			c.Title, c.Description, string(c.Type), string(model.StatusUpcoming),
			c.StartDate, c.SubmissionEndDate, c.VotingEndDate, c.ArchiveDate,
			c.Number, c.Year, c.Seed)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(id)
		c.Status = model.StatusUpcoming
		return nil
	})
}

// GetByID loads one contest.
func (r *ContestRepo) GetByID(ctx context.Context, id uint64) (model.Contest, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+contestColumns+" FROM contests WHERE id=? LIMIT 1", id)
	return scanContest(row.Scan)
}

// ListUnarchived returns every contest that may still need a phase
// transition, for the periodic sweep.
func (r *ContestRepo) ListUnarchived(ctx context.Context) ([]model.Contest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contestColumns+" FROM contests WHERE status <> ? ORDER BY id",
		string(model.StatusArchived))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Contest
	for rows.Next() {
		c, err := scanContest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// List returns contests newest first.
func (r *ContestRepo) List(ctx context.Context, limit int) ([]model.Contest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contestColumns+" FROM contests ORDER BY start_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Contest
	for rows.Next() {
		c, err := scanContest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AdvanceStatus moves a contest from one phase to the next.  The WHERE
// clause pins the expected current status, so a concurrent sweep that
// already applied the transition affects zero rows and is reported through
// the boolean without error.
func (r *ContestRepo) AdvanceStatus(ctx context.Context, id uint64, from, to model.ContestStatus) (bool, error) {
	if !to.After(from) {
		return false, ErrImmutable
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE contests SET status=? WHERE id=? AND status=?",
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// UpdateDetails updates the mutable contest fields.  The seed column is
// absent from the statement; a caller passing a contest whose seed differs
// from the stored one gets ErrImmutable and nothing is written.
func (r *ContestRepo) UpdateDetails(ctx context.Context, c *model.Contest) error {
	var storedSeed string
	err := r.DB.QueryRowContext(ctx,
		"SELECT seed FROM contests WHERE id=? LIMIT 1", c.ID).Scan(&storedSeed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if c.Seed != storedSeed {
		return ErrImmutable
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE contests SET title=?, description=?, start_date=?, submission_end_date=?, voting_end_date=?, archive_date=? WHERE id=?",
		c.Title, c.Description, c.StartDate, c.SubmissionEndDate, c.VotingEndDate, c.ArchiveDate, c.ID)
	return err
}

// CreateSubmission enters a user into a contest.  The unique
// (contest, user) index turns a second attempt into ErrDuplicateSubmission.
func (r *ContestRepo) CreateSubmission(ctx context.Context, contestID, userID, mediaID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO submissions (contest_id, user_id, media_id) VALUES (?,?,?)",
		contestID, userID, mediaID)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicateSubmission
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SubmissionStat pairs a submission with the like count of the posts
// carrying its media.  It is the input to finalist selection.
type SubmissionStat struct {
	SubmissionID uint64
	Likes        int
}

// SubmissionStats returns every submission in the contest with its
// like count, ordered by submission id for a stable baseline.
func (r *ContestRepo) SubmissionStats(ctx context.Context, contestID uint64) ([]SubmissionStat, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.id, COUNT(pl.user_id)
		 FROM submissions s
		 LEFT JOIN post_media pm ON pm.media_id = s.media_id
		 LEFT JOIN post_likes pl ON pl.post_id = pm.post_id
		 WHERE s.contest_id = ?
		 GROUP BY s.id
		 ORDER BY s.id`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubmissionStat
	for rows.Next() {
		var st SubmissionStat
		if err := rows.Scan(&st.SubmissionID, &st.Likes); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetSubmission loads one submission.
func (r *ContestRepo) GetSubmission(ctx context.Context, id uint64) (model.Submission, error) {
	var s model.Submission
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, contest_id, user_id, media_id, created_at FROM submissions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.ContestID, &s.UserID, &s.MediaID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// CreateVote records a vote after enforcing the per-contest cap.  The count
// check and the insert share a transaction; a duplicate (submission, user)
// pair is caught by the unique index.
func (r *ContestRepo) CreateVote(ctx context.Context, contestID, submissionID, userID uint64) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM votes WHERE contest_id=? AND user_id=? FOR UPDATE",
			contestID, userID).Scan(&n)
		if err != nil {
			return err
		}
		if n >= model.VoteLimit {
			return ErrVoteLimit
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO votes (contest_id, submission_id, user_id) VALUES (?,?,?)",
			contestID, submissionID, userID); err != nil {
			if isDuplicate(err) {
				return ErrDuplicateVote
			}
			return err
		}
		return nil
	})
}

// VoteCount returns the number of votes cast for one submission.
func (r *ContestRepo) VoteCount(ctx context.Context, submissionID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE submission_id=?", submissionID).Scan(&n)
	return n, err
}

// WinnerSubmission returns the contest submission with the most votes.
// Ties break deterministically: earliest submission first, then lowest id.
func (r *ContestRepo) WinnerSubmission(ctx context.Context, contestID uint64) (model.Submission, int, error) {
	var s model.Submission
	var votes int
	err := r.DB.QueryRowContext(ctx,
		`SELECT s.id, s.contest_id, s.user_id, s.media_id, s.created_at, COUNT(v.id) AS votes
		 FROM submissions s
		 LEFT JOIN votes v ON v.submission_id = s.id
		 WHERE s.contest_id = ?
		 GROUP BY s.id
		 ORDER BY votes DESC, s.created_at ASC, s.id ASC
		 LIMIT 1`, contestID).Scan(&s.ID, &s.ContestID, &s.UserID, &s.MediaID, &s.CreatedAt, &votes)
	if errors.Is(err, sql.ErrNoRows) {
		return s, 0, ErrNotFound
	}
	return s, votes, err
}

// PruneStale is a maintenance hook removing votes that reference deleted
// submissions.  Kept separate from the hot paths; runs are cheap when
// there is nothing to do.
func (r *ContestRepo) PruneStale(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := r.DB.ExecContext(ctx,
		"DELETE v FROM votes v LEFT JOIN submissions s ON s.id = v.submission_id WHERE s.id IS NULL")
	return err
}
