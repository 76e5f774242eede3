package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/physai/textbook-backend/internal/models"
)

// CreateAccountWithProfile inserts the account and its profile in one
// transaction. Signup must never leave an account without a profile.
func (r *SQLiteRepo) CreateAccountWithProfile(ctx context.Context, a *models.Account, p *models.Profile) (int64, error) {
	if a == nil || p == nil {
		return 0, fmt.Errorf("account or profile is nil")
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx, `INSERT INTO accounts (email, password_hash, active, created) VALUES (?, ?, 1, ?)`, a.Email, a.PasswordHash, ts)
	if err != nil {
		return 0, err
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO account_profiles (account_id, software_experience, hardware_experience, interests, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, string(p.SoftwareExperience), string(p.HardwareExperience), string(interests), ts, ts); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return accountID, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, password_hash, active, created, last_login FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, password_hash, active, created, last_login FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var active int64
	var lastLogin sql.NullInt64
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &active, &a.Created, &lastLogin); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	a.Active = active != 0
	if lastLogin.Valid {
		a.LastLogin = &lastLogin.Int64
	}

	return &a, nil
}

func (r *SQLiteRepo) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE accounts SET last_login = ? WHERE id = ?`, now(), id)
	return err
}

func (r *SQLiteRepo) SetActive(ctx context.Context, id int64, active bool) error {
	v := 0
	if active {
		v = 1
	}
	_, err := r.conn.Exec(ctx, `UPDATE accounts SET active = ? WHERE id = ?`, v, id)
	return err
}
