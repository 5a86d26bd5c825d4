package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"rakeback-manager/internal/domain"
)

// EntityRepository stores the commission rules of all three tiers in a single
// table keyed by (club, tier, lower-cased nickname).
type EntityRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewEntityRepository(sqlDB *sql.DB, logger zerolog.Logger) *EntityRepository {
	return &EntityRepository{db: sqlDB, logger: logger}
}

const entityColumns = `id, club_id, tier, nickname, rakeback_type, rakeback, thresholds, tax_rebate, routing, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(s scanner) (*domain.Entity, error) {
	var (
		e          domain.Entity
		thresholds string
		routing    string
	)
	err := s.Scan(
		&e.ID, &e.ClubID, &e.Tier, &e.Nickname, &e.RakebackType, &e.Rakeback,
		&thresholds, &e.TaxRebate, &routing, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(thresholds), &e.Thresholds); err != nil {
		return nil, fmt.Errorf("failed to decode thresholds of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(routing), &e.Routing); err != nil {
		return nil, fmt.Errorf("failed to decode routing of %s: %w", e.ID, err)
	}
	return &e, nil
}

func encodeRules(cfg domain.EntityConfig) (string, string, error) {
	thresholds := cfg.Thresholds
	if thresholds == nil {
		thresholds = []domain.Threshold{}
	}
	routing := cfg.Routing
	if routing == nil {
		routing = []domain.RoutingEntry{}
	}
	t, err := json.Marshal(thresholds)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode thresholds: %w", err)
	}
	r, err := json.Marshal(routing)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode routing: %w", err)
	}
	return string(t), string(r), nil
}

func (r *EntityRepository) Create(ctx context.Context, e *domain.Entity) error {
	thresholds, routing, err := encodeRules(e.EntityConfig)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO entities (`+entityColumns+`, nickname_key) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ClubID, e.Tier, e.Nickname, e.RakebackType, e.Rakeback,
		thresholds, e.TaxRebate, routing, e.CreatedAt, e.UpdatedAt,
		strings.ToLower(strings.TrimSpace(e.Nickname)),
	)
	if err != nil {
		r.logger.Debug().Err(err).Str("club_id", e.ClubID).Str("tier", string(e.Tier)).Str("nickname", e.Nickname).Msg("failed to insert entity")
	}
	return translate(err, fmt.Sprintf("%s %q", e.Tier, e.Nickname))
}

func (r *EntityRepository) Update(ctx context.Context, e *domain.Entity) error {
	thresholds, routing, err := encodeRules(e.EntityConfig)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE entities
		 SET nickname = ?, nickname_key = ?, rakeback_type = ?, rakeback = ?, thresholds = ?,
		     tax_rebate = ?, routing = ?, updated_at = ?
		 WHERE id = ? AND club_id = ? AND tier = ?`,
		e.Nickname, strings.ToLower(strings.TrimSpace(e.Nickname)), e.RakebackType, e.Rakeback, thresholds,
		e.TaxRebate, routing, e.UpdatedAt,
		e.ID, e.ClubID, e.Tier,
	)
	if err != nil {
		return translate(err, fmt.Sprintf("%s %q", e.Tier, e.Nickname))
	}
	return affected(res, fmt.Sprintf("%s %s", e.Tier, e.ID))
}

func (r *EntityRepository) Get(ctx context.Context, clubID string, tier domain.Tier, id string) (*domain.Entity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = ? AND club_id = ? AND tier = ?`,
		id, clubID, tier,
	)
	e, err := scanEntity(row)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("%s %s", tier, id))
	}
	return e, nil
}

func (r *EntityRepository) List(ctx context.Context, clubID string, tier domain.Tier) ([]domain.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE club_id = ? AND tier = ? ORDER BY nickname_key`,
		clubID, tier,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s entities: %w", tier, err)
	}
	defer rows.Close()

	entities := []domain.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

// Configs returns just the rule sets of a tier, in nickname order.
func (r *EntityRepository) Configs(ctx context.Context, clubID string, tier domain.Tier) ([]domain.EntityConfig, error) {
	entities, err := r.List(ctx, clubID, tier)
	if err != nil {
		return nil, err
	}
	configs := make([]domain.EntityConfig, len(entities))
	for i, e := range entities {
		configs[i] = e.EntityConfig
	}
	return configs, nil
}

func (r *EntityRepository) Delete(ctx context.Context, clubID string, tier domain.Tier, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entities WHERE id = ? AND club_id = ? AND tier = ?`,
		id, clubID, tier,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", tier, err)
	}
	return affected(res, fmt.Sprintf("%s %s", tier, id))
}
