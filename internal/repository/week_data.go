package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"rakeback-manager/internal/domain"
)

type WeekDataRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewWeekDataRepository(sqlDB *sql.DB, logger zerolog.Logger) *WeekDataRepository {
	return &WeekDataRepository{db: sqlDB, logger: logger}
}

const weekDataColumns = `id, club_id, week_id, week_number, start_date, end_date, overview, extracted_rows, result, created_at`

func scanWeekData(s scanner) (*domain.WeekData, error) {
	var (
		d        domain.WeekData
		overview sql.NullString
		rows     string
		result   string
	)
	err := s.Scan(&d.ID, &d.ClubID, &d.WeekID, &d.WeekNumber, &d.StartDate, &d.EndDate, &overview, &rows, &result, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if overview.Valid {
		d.Overview = &domain.ClubOverview{}
		if err := json.Unmarshal([]byte(overview.String), d.Overview); err != nil {
			return nil, fmt.Errorf("failed to decode overview of %s: %w", d.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(rows), &d.Rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows of %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(result), &d.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", d.ID, err)
	}
	return &d, nil
}

// SaveProcessed stores a computed week and flips the week to processed in one
// transaction. Only the first caller for a week succeeds; later callers get
// domain.ErrAlreadyProcessed.
func (r *WeekDataRepository) SaveProcessed(ctx context.Context, d *domain.WeekData) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE weeks SET processed = 1 WHERE id = ? AND club_id = ? AND processed = 0`,
		d.WeekID, d.ClubID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark week processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		r.logger.Warn().Str("club_id", d.ClubID).Str("week_id", d.WeekID).Msg("week already processed or missing")
		return fmt.Errorf("week %s: %w", d.WeekID, domain.ErrAlreadyProcessed)
	}

	var overview sql.NullString
	if d.Overview != nil {
		b, err := json.Marshal(d.Overview)
		if err != nil {
			return fmt.Errorf("failed to encode overview: %w", err)
		}
		overview = sql.NullString{String: string(b), Valid: true}
	}
	rows, err := json.Marshal(d.Rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	result, err := json.Marshal(d.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	s := d.Result.Summary
	_, err = tx.ExecContext(ctx,
		`INSERT INTO week_data (`+weekDataColumns+`,
		     total_player_rakeback, total_agent_rakeback, total_super_agent_rakeback, total_rakeback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ClubID, d.WeekID, d.WeekNumber, d.StartDate, d.EndDate, overview, string(rows), string(result), d.CreatedAt,
		s.TotalPlayerRakeback, s.TotalAgentRakeback, s.TotalSuperAgentRakeback, s.GrandTotal,
	)
	if err != nil {
		return translate(err, "week data for "+d.WeekID)
	}

	return tx.Commit()
}

func (r *WeekDataRepository) List(ctx context.Context, clubID string) ([]domain.WeekData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+weekDataColumns+` FROM week_data WHERE club_id = ? ORDER BY week_number DESC`, clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list week data: %w", err)
	}
	defer rows.Close()

	out := []domain.WeekData{}
	for rows.Next() {
		d, err := scanWeekData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan week data: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *WeekDataRepository) Get(ctx context.Context, clubID, id string) (*domain.WeekData, error) {
	d, err := scanWeekData(r.db.QueryRowContext(ctx,
		`SELECT `+weekDataColumns+` FROM week_data WHERE id = ? AND club_id = ?`, id, clubID,
	))
	if err != nil {
		return nil, translate(err, "week data "+id)
	}
	return d, nil
}

// Delete drops a computed week and reopens the week for processing.
func (r *WeekDataRepository) Delete(ctx context.Context, clubID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var weekID string
	err = tx.QueryRowContext(ctx, `SELECT week_id FROM week_data WHERE id = ? AND club_id = ?`, id, clubID).Scan(&weekID)
	if err != nil {
		return translate(err, "week data "+id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM week_data WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete week data: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE weeks SET processed = 0 WHERE id = ?`, weekID); err != nil {
		return fmt.Errorf("failed to reopen week: %w", err)
	}

	return tx.Commit()
}
