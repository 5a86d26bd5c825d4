package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rakeback-manager/internal/api"
	"rakeback-manager/internal/constants"
	"rakeback-manager/internal/domain"
	"rakeback-manager/internal/rakeback"
	"rakeback-manager/internal/repository"
)

type WeekService struct {
	feed       *api.FeedClient
	weekRepo   *repository.WeekRepository
	entityRepo *repository.EntityRepository
	dataRepo   *repository.WeekDataRepository
	logger     zerolog.Logger
}

func NewWeekService(
	feed *api.FeedClient,
	weekRepo *repository.WeekRepository,
	entityRepo *repository.EntityRepository,
	dataRepo *repository.WeekDataRepository,
	logger zerolog.Logger,
) *WeekService {
	return &WeekService{feed: feed, weekRepo: weekRepo, entityRepo: entityRepo, dataRepo: dataRepo, logger: logger}
}

func validateWeek(w *domain.Week) error {
	if w.Status == "" {
		w.Status = domain.WeekActive
	}
	switch {
	case w.WeekNumber <= 0:
		return fmt.Errorf("week number must be positive: %w", domain.ErrInvalidInput)
	case strings.TrimSpace(w.StartDate) == "" || strings.TrimSpace(w.EndDate) == "":
		return fmt.Errorf("start and end date are required: %w", domain.ErrInvalidInput)
	case !w.Status.Valid():
		return fmt.Errorf("unknown week status %q: %w", w.Status, domain.ErrInvalidInput)
	}
	return nil
}

func (s *WeekService) Create(ctx context.Context, clubID string, w domain.Week) (*domain.Week, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := validateWeek(&w); err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	w.ID = id
	w.ClubID = clubID
	w.HasData = false
	w.Processed = false
	w.CreatedAt = time.Now().UTC()

	if err := s.weekRepo.Create(ctx, &w); err != nil {
		return nil, err
	}

	s.logger.Info().Str("club_id", clubID).Str("week_id", id).Int("week_number", w.WeekNumber).Msg("week created")
	return &w, nil
}

func (s *WeekService) List(ctx context.Context, clubID string) ([]domain.Week, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.weekRepo.List(ctx, clubID)
}

func (s *WeekService) Get(ctx context.Context, clubID, id string) (*domain.Week, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.weekRepo.Get(ctx, clubID, id)
}

// WeekPatch carries the editable week fields; nil means unchanged.
type WeekPatch struct {
	StartDate *string            `json:"startDate"`
	EndDate   *string            `json:"endDate"`
	Status    *domain.WeekStatus `json:"status"`
}

func (s *WeekService) Update(ctx context.Context, clubID, id string, patch WeekPatch) (*domain.Week, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	w, err := s.weekRepo.Get(ctx, clubID, id)
	if err != nil {
		return nil, err
	}
	if patch.StartDate != nil {
		w.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		w.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		w.Status = *patch.Status
	}
	if err := validateWeek(w); err != nil {
		return nil, err
	}

	if err := s.weekRepo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WeekService) Delete(ctx context.Context, clubID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.weekRepo.Delete(ctx, clubID, id); err != nil {
		return err
	}
	s.logger.Info().Str("club_id", clubID).Str("week_id", id).Msg("week deleted")
	return nil
}

func normalizeRow(row domain.RakeRow) domain.RakeRow {
	row.Nickname = strings.TrimSpace(row.Nickname)
	row.Agent = strings.TrimSpace(row.Agent)
	row.SuperAgent = strings.TrimSpace(row.SuperAgent)
	if row.Agent == "" {
		row.Agent = domain.NoUpline
	}
	if row.SuperAgent == "" {
		row.SuperAgent = domain.NoUpline
	}
	return row
}

// Upload replaces the week's raw rows. Rows are validated up front so a week
// never holds data the engine would reject.
func (s *WeekService) Upload(ctx context.Context, clubID, weekID string, upload domain.WeekUpload) (*domain.Week, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if len(upload.Rows) == 0 {
		return nil, fmt.Errorf("no rows in upload: %w", domain.ErrInvalidInput)
	}
	if len(upload.Rows) > constants.MaxUploadRows {
		return nil, fmt.Errorf("upload has %d rows, limit is %d: %w", len(upload.Rows), constants.MaxUploadRows, domain.ErrInvalidInput)
	}

	rows := make([]domain.RakeRow, len(upload.Rows))
	var errs []error
	for i, row := range upload.Rows {
		rows[i] = normalizeRow(row)
		if err := rakeback.ValidateRow(i, rows[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	upload.Rows = rows

	if err := s.weekRepo.ReplaceRows(ctx, clubID, weekID, upload); err != nil {
		s.logger.Error().Err(err).Str("club_id", clubID).Str("week_id", weekID).Msg("failed to store rows")
		return nil, err
	}

	s.logger.Info().Str("club_id", clubID).Str("week_id", weekID).Int("rows", len(rows)).Msg("week rows uploaded")
	return s.weekRepo.Get(ctx, clubID, weekID)
}

// Import pulls the week's rows from the statistics feed and stores them as an
// upload.
func (s *WeekService) Import(ctx context.Context, clubID, weekID string) (*domain.Week, error) {
	w, err := s.Get(ctx, clubID, weekID)
	if err != nil {
		return nil, err
	}

	feedCtx, feedCancel := context.WithTimeout(ctx, constants.FeedTimeout)
	defer feedCancel()

	resp, err := s.feed.GetMemberStatistics(feedCtx, clubID, w.WeekNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("club_id", clubID).Int("week_number", w.WeekNumber).Msg("failed to fetch member statistics")
		return nil, fmt.Errorf("failed to fetch member statistics: %w", err)
	}

	s.logger.Debug().
		Str("club_id", clubID).
		Int("members", len(resp.Data.Members)).
		Int("rate_limit_remaining", s.feed.GetRateLimitInfo().Remaining).
		Msg("member statistics fetched")

	return s.Upload(ctx, clubID, weekID, resp.Upload())
}

// Process runs the engine over the week's stored rows and the club's current
// rules, then persists the result. A week is processed at most once until its
// week data is deleted.
func (s *WeekService) Process(ctx context.Context, clubID, weekID string) (*domain.WeekData, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ProcessTimeout)
	defer cancel()

	w, err := s.weekRepo.Get(ctx, clubID, weekID)
	if err != nil {
		return nil, err
	}
	if w.Processed {
		return nil, fmt.Errorf("week %d: %w", w.WeekNumber, domain.ErrAlreadyProcessed)
	}

	var (
		rows     []domain.RakeRow
		overview *domain.ClubOverview
		bundle   = rakeback.Bundle{ClubID: clubID}
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, overview, err = s.weekRepo.Rows(gCtx, clubID, weekID)
		return err
	})
	g.Go(func() error {
		var err error
		bundle.Players, err = s.entityRepo.Configs(gCtx, clubID, domain.TierPlayer)
		return err
	})
	g.Go(func() error {
		var err error
		bundle.Agents, err = s.entityRepo.Configs(gCtx, clubID, domain.TierAgent)
		return err
	})
	g.Go(func() error {
		var err error
		bundle.SuperAgents, err = s.entityRepo.Configs(gCtx, clubID, domain.TierSuperAgent)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("club_id", clubID).Str("week_id", weekID).Msg("failed to load week inputs")
		return nil, fmt.Errorf("failed to load week inputs: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("week %d: %w", w.WeekNumber, domain.ErrNoRows)
	}

	s.logger.Debug().
		Str("club_id", clubID).
		Str("week_id", weekID).
		Int("rows", len(rows)).
		Int("players", len(bundle.Players)).
		Int("agents", len(bundle.Agents)).
		Int("super_agents", len(bundle.SuperAgents)).
		Msg("processing week")

	result, err := rakeback.ProcessWeek(rows, bundle)
	if err != nil {
		s.logger.Warn().Err(err).Str("club_id", clubID).Str("week_id", weekID).Msg("week rejected")
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	data := &domain.WeekData{
		ID:         id,
		ClubID:     clubID,
		WeekID:     weekID,
		WeekNumber: w.WeekNumber,
		StartDate:  w.StartDate,
		EndDate:    w.EndDate,
		Overview:   overview,
		Rows:       rows,
		Result:     *result,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.dataRepo.SaveProcessed(ctx, data); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("club_id", clubID).
		Str("week_id", weekID).
		Int("player_results", len(result.PlayerResults)).
		Int("agent_results", len(result.AgentResults)).
		Int("super_agent_results", len(result.SuperAgentResults)).
		Float64("grand_total", result.Summary.GrandTotal).
		Msg("week processed")
	return data, nil
}

// Preview runs the engine without touching storage.
func (s *WeekService) Preview(rows []domain.RakeRow, bundle rakeback.Bundle) (*domain.WeekResult, error) {
	normalized := make([]domain.RakeRow, len(rows))
	for i, row := range rows {
		normalized[i] = normalizeRow(row)
	}
	return rakeback.ProcessWeek(normalized, bundle)
}

func (s *WeekService) ListData(ctx context.Context, clubID string) ([]domain.WeekData, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.dataRepo.List(ctx, clubID)
}

func (s *WeekService) GetData(ctx context.Context, clubID, id string) (*domain.WeekData, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.dataRepo.Get(ctx, clubID, id)
}

// DeleteData removes a computed week and reopens it for processing.
func (s *WeekService) DeleteData(ctx context.Context, clubID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.dataRepo.Delete(ctx, clubID, id); err != nil {
		return err
	}
	s.logger.Info().Str("club_id", clubID).Str("week_data_id", id).Msg("week data deleted, week reopened")
	return nil
}
