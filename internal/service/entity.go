package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"rakeback-manager/internal/constants"
	"rakeback-manager/internal/domain"
	"rakeback-manager/internal/rakeback"
	"rakeback-manager/internal/repository"
)

// EntityService manages the commission rules of players, agents and super
// agents. Every rule is checked with the same validation the engine applies.
type EntityService struct {
	repo   *repository.EntityRepository
	logger zerolog.Logger
}

func NewEntityService(repo *repository.EntityRepository, logger zerolog.Logger) *EntityService {
	return &EntityService{repo: repo, logger: logger}
}

func normalizeConfig(cfg domain.EntityConfig) domain.EntityConfig {
	cfg.Nickname = strings.TrimSpace(cfg.Nickname)
	if cfg.RakebackType == "" {
		cfg.RakebackType = domain.RakebackFlat
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = []domain.Threshold{}
	}
	if cfg.Routing == nil {
		cfg.Routing = []domain.RoutingEntry{}
	}
	for i := range cfg.Routing {
		cfg.Routing[i].Username = strings.TrimSpace(cfg.Routing[i].Username)
	}
	return cfg
}

func (s *EntityService) Create(ctx context.Context, clubID string, tier domain.Tier, cfg domain.EntityConfig) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	cfg = normalizeConfig(cfg)
	if err := rakeback.ValidateConfig(tier, cfg); err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	now := time.Now().UTC()
	e := &domain.Entity{ID: id, ClubID: clubID, Tier: tier, EntityConfig: cfg, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("club_id", clubID).
		Str("tier", string(tier)).
		Str("nickname", cfg.Nickname).
		Str("rakeback_type", string(cfg.RakebackType)).
		Msg("entity created")
	return e, nil
}

func (s *EntityService) Update(ctx context.Context, clubID string, tier domain.Tier, id string, cfg domain.EntityConfig) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	cfg = normalizeConfig(cfg)
	if err := rakeback.ValidateConfig(tier, cfg); err != nil {
		return nil, err
	}

	e, err := s.repo.Get(ctx, clubID, tier, id)
	if err != nil {
		return nil, err
	}
	e.EntityConfig = cfg
	e.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info().Str("club_id", clubID).Str("tier", string(tier)).Str("id", id).Msg("entity updated")
	return e, nil
}

func (s *EntityService) Get(ctx context.Context, clubID string, tier domain.Tier, id string) (*domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.Get(ctx, clubID, tier, id)
}

func (s *EntityService) List(ctx context.Context, clubID string, tier domain.Tier) ([]domain.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.List(ctx, clubID, tier)
}

func (s *EntityService) Delete(ctx context.Context, clubID string, tier domain.Tier, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, clubID, tier, id); err != nil {
		return err
	}
	s.logger.Info().Str("club_id", clubID).Str("tier", string(tier)).Str("id", id).Msg("entity deleted")
	return nil
}
