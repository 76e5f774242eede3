package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/physai/textbook-backend/internal/models"
)

func (r *SQLiteRepo) CreateQueryRecord(ctx context.Context, qr *models.QueryRecord) (int64, error) {
	if qr == nil {
		return 0, fmt.Errorf("query record is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO query_records (account_id, question, answer, personalization, created) VALUES (?, ?, ?, ?, ?)`,
		qr.AccountID, qr.Question, qr.Answer, qr.Personalization, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, account_id, question, answer, personalization, created FROM query_records WHERE account_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
		accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QueryRecord
	for rows.Next() {
		var qr models.QueryRecord
		var acct sql.NullInt64
		var personalization sql.NullString
		if err := rows.Scan(&qr.ID, &acct, &qr.Question, &qr.Answer, &personalization, &qr.Created); err != nil {
			return nil, err
		}
		if acct.Valid {
			qr.AccountID = &acct.Int64
		}
		if personalization.Valid {
			qr.Personalization = &personalization.String
		}
		out = append(out, qr)
	}

	return out, rows.Err()
}
