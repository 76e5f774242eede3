package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/physai/textbook-backend/internal/models"
)

func (r *SQLiteRepo) CreateSession(ctx context.Context, s *models.Session) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("session is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO sessions (account_id, token_hash, expires_at, user_agent, ip_address, created) VALUES (?, ?, ?, ?, ?, ?)`,
		s.AccountID, s.TokenHash, s.ExpiresAt, s.UserAgent, s.IPAddress, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, account_id, token_hash, expires_at, user_agent, ip_address, created FROM sessions WHERE token_hash = ?`, tokenHash)
	var s models.Session
	var ua, ip sql.NullString
	if err := row.Scan(&s.ID, &s.AccountID, &s.TokenHash, &s.ExpiresAt, &ua, &ip, &s.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if ua.Valid {
		s.UserAgent = &ua.String
	}
	if ip.Valid {
		s.IPAddress = &ip.String
	}

	return &s, nil
}

// ReplaceSession deletes the row holding oldHash and inserts next in one
// transaction. The delete's affected-row count decides the race: when two
// rotations present the same credential, only one sees consumed=true.
func (r *SQLiteRepo) ReplaceSession(ctx context.Context, oldHash string, next *models.Session) (bool, error) {
	if next == nil {
		return false, fmt.Errorf("session is nil")
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, oldHash)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (account_id, token_hash, expires_at, user_agent, ip_address, created) VALUES (?, ?, ?, ?, ?, ?)`,
		next.AccountID, next.TokenHash, next.ExpiresAt, next.UserAgent, next.IPAddress, now()); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

func (r *SQLiteRepo) DeleteByTokenHash(ctx context.Context, accountID int64, tokenHash string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE account_id = ? AND token_hash = ?`, accountID, tokenHash)
	return err
}

func (r *SQLiteRepo) DeleteByAccountID(ctx context.Context, accountID int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE account_id = ?`, accountID)
	return err
}

func (r *SQLiteRepo) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM sessions WHERE account_id = ?`, accountID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteExpired removes every session whose expiry is at or before now and
// reports how many rows went away.
func (r *SQLiteRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// DeleteOldestByAccountID prunes sessions past the configured cap, keeping
// the most recently created rows.
func (r *SQLiteRepo) DeleteOldestByAccountID(ctx context.Context, accountID int64, keep int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE account_id = ? AND id NOT IN (SELECT id FROM sessions WHERE account_id = ? ORDER BY created DESC, id DESC LIMIT ?)`,
		accountID, accountID, keep)
	return err
}
