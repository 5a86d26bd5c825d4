package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"rakeback-manager/internal/domain"
)

type ClubRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewClubRepository(sqlDB *sql.DB, logger zerolog.Logger) *ClubRepository {
	return &ClubRepository{db: sqlDB, logger: logger}
}

func (r *ClubRepository) Create(ctx context.Context, club *domain.Club) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clubs (id, display_name, created_at) VALUES (?, ?, ?)`,
		club.ID, club.DisplayName, club.CreatedAt,
	)
	return translate(err, "club "+club.ID)
}

func (r *ClubRepository) List(ctx context.Context) ([]domain.Club, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, display_name, created_at FROM clubs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	clubs := []domain.Club{}
	for rows.Next() {
		var c domain.Club
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r *ClubRepository) Get(ctx context.Context, id string) (*domain.Club, error) {
	var c domain.Club
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM clubs WHERE id = ?`, id,
	).Scan(&c.ID, &c.DisplayName, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "club "+id)
	}
	return &c, nil
}

func (r *ClubRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clubs WHERE id = ?`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("club_id", id).Msg("failed to delete club")
		return fmt.Errorf("failed to delete club: %w", err)
	}
	return affected(res, "club "+id)
}
