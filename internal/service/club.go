package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"rakeback-manager/internal/constants"
	"rakeback-manager/internal/domain"
	"rakeback-manager/internal/repository"
)

type ClubService struct {
	repo   *repository.ClubRepository
	logger zerolog.Logger
}

func NewClubService(repo *repository.ClubRepository, logger zerolog.Logger) *ClubService {
	return &ClubService{repo: repo, logger: logger}
}

// Create registers a club whose id is the slug of name.
func (s *ClubService) Create(ctx context.Context, name, displayName string) (*domain.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	id := slug.Make(name)
	if id == "" {
		return nil, fmt.Errorf("club name %q: %w", name, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = strings.TrimSpace(name)
	}

	club := &domain.Club{ID: id, DisplayName: displayName, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, club); err != nil {
		s.logger.Warn().Err(err).Str("club_id", id).Msg("failed to create club")
		return nil, err
	}

	s.logger.Info().Str("club_id", id).Msg("club created")
	return club, nil
}

func (s *ClubService) List(ctx context.Context) ([]domain.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.List(ctx)
}

func (s *ClubService) Get(ctx context.Context, id string) (*domain.Club, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.Get(ctx, id)
}

func (s *ClubService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("club_id", id).Msg("club deleted")
	return nil
}
