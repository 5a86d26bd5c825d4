package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"rakeback-manager/internal/constants"
	"rakeback-manager/internal/domain"
)

type WeekRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewWeekRepository(sqlDB *sql.DB, logger zerolog.Logger) *WeekRepository {
	return &WeekRepository{db: sqlDB, logger: logger}
}

const weekColumns = `id, club_id, week_number, start_date, end_date, status, has_data, processed, created_at`

func scanWeek(s scanner) (*domain.Week, error) {
	var w domain.Week
	err := s.Scan(&w.ID, &w.ClubID, &w.WeekNumber, &w.StartDate, &w.EndDate, &w.Status, &w.HasData, &w.Processed, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WeekRepository) Create(ctx context.Context, w *domain.Week) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO weeks (`+weekColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.ClubID, w.WeekNumber, w.StartDate, w.EndDate, w.Status, w.HasData, w.Processed, w.CreatedAt,
	)
	return translate(err, fmt.Sprintf("week %d", w.WeekNumber))
}

func (r *WeekRepository) List(ctx context.Context, clubID string) ([]domain.Week, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+weekColumns+` FROM weeks WHERE club_id = ? ORDER BY week_number DESC`, clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	defer rows.Close()

	weeks := []domain.Week{}
	for rows.Next() {
		w, err := scanWeek(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		weeks = append(weeks, *w)
	}
	return weeks, rows.Err()
}

func (r *WeekRepository) Get(ctx context.Context, clubID, id string) (*domain.Week, error) {
	w, err := scanWeek(r.db.QueryRowContext(ctx,
		`SELECT `+weekColumns+` FROM weeks WHERE id = ? AND club_id = ?`, id, clubID,
	))
	if err != nil {
		return nil, translate(err, "week "+id)
	}
	return w, nil
}

func (r *WeekRepository) Update(ctx context.Context, w *domain.Week) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE weeks SET start_date = ?, end_date = ?, status = ? WHERE id = ? AND club_id = ?`,
		w.StartDate, w.EndDate, w.Status, w.ID, w.ClubID,
	)
	if err != nil {
		return fmt.Errorf("failed to update week: %w", err)
	}
	return affected(res, "week "+w.ID)
}

func (r *WeekRepository) Delete(ctx context.Context, clubID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM weeks WHERE id = ? AND club_id = ?`, id, clubID)
	if err != nil {
		return fmt.Errorf("failed to delete week: %w", err)
	}
	return affected(res, "week "+id)
}

// ReplaceRows swaps the week's stored rows for upload and marks it as having
// data. Processed weeks are left untouched.
func (r *WeekRepository) ReplaceRows(ctx context.Context, clubID, weekID string, upload domain.WeekUpload) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var overview sql.NullString
	if upload.Overview != nil {
		b, err := json.Marshal(upload.Overview)
		if err != nil {
			return fmt.Errorf("failed to encode overview: %w", err)
		}
		overview = sql.NullString{String: string(b), Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE weeks SET has_data = 1, overview = ? WHERE id = ? AND club_id = ? AND processed = 0`,
		overview, weekID, clubID,
	)
	if err != nil {
		return fmt.Errorf("failed to flag week: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 0 {
		var processed bool
		err := tx.QueryRowContext(ctx, `SELECT processed FROM weeks WHERE id = ? AND club_id = ?`, weekID, clubID).Scan(&processed)
		if err != nil {
			return translate(err, "week "+weekID)
		}
		return fmt.Errorf("week %s: %w", weekID, domain.ErrAlreadyProcessed)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM week_rows WHERE week_id = ?`, weekID); err != nil {
		return fmt.Errorf("failed to clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO week_rows (week_id, position, nickname, agent, super_agent, rake, pl) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(upload.Rows); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(upload.Rows))

		for j, row := range upload.Rows[i:end] {
			if _, err := stmt.ExecContext(ctx, weekID, i+j, row.Nickname, row.Agent, row.SuperAgent, row.Rake, row.PL); err != nil {
				return fmt.Errorf("failed to insert row %d: %w", i+j, err)
			}
		}
		r.logger.Debug().Str("week_id", weekID).Int("stored", end).Int("total", len(upload.Rows)).Msg("stored row batch")
	}

	return tx.Commit()
}

// Rows returns the stored rows in upload order along with the club overview.
func (r *WeekRepository) Rows(ctx context.Context, clubID, weekID string) ([]domain.RakeRow, *domain.ClubOverview, error) {
	var overview sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT overview FROM weeks WHERE id = ? AND club_id = ?`, weekID, clubID).Scan(&overview)
	if err != nil {
		return nil, nil, translate(err, "week "+weekID)
	}

	var ov *domain.ClubOverview
	if overview.Valid {
		ov = &domain.ClubOverview{}
		if err := json.Unmarshal([]byte(overview.String), ov); err != nil {
			return nil, nil, fmt.Errorf("failed to decode overview: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT nickname, agent, super_agent, rake, pl FROM week_rows WHERE week_id = ? ORDER BY position`, weekID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rows: %w", err)
	}
	defer rows.Close()

	out := []domain.RakeRow{}
	for rows.Next() {
		var row domain.RakeRow
		if err := rows.Scan(&row.Nickname, &row.Agent, &row.SuperAgent, &row.Rake, &row.PL); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, ov, rows.Err()
}
