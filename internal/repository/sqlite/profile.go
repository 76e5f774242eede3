package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/physai/textbook-backend/internal/models"
)

func (r *SQLiteRepo) GetByAccountID(ctx context.Context, accountID int64) (*models.Profile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, account_id, software_experience, hardware_experience, interests, created, updated FROM account_profiles WHERE account_id = ?`, accountID)
	var p models.Profile
	var interests string
	if err := row.Scan(&p.ID, &p.AccountID, &p.SoftwareExperience, &p.HardwareExperience, &interests, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}

	return &p, nil
}

func (r *SQLiteRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE account_profiles SET software_experience = ?, hardware_experience = ?, interests = ?, updated = ? WHERE account_id = ?`,
		string(p.SoftwareExperience), string(p.HardwareExperience), string(interests), now(), p.AccountID)
	return err
}
