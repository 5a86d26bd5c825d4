package rakeback

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"rakeback-manager/internal/domain"
)

var (
	ErrInvalidConfig = errors.New("invalid entity configuration")
	ErrInvalidRow    = errors.New("invalid rake row")
)

// ConfigurationError describes a commission rule the engine refuses to run with.
type ConfigurationError struct {
	Tier     domain.Tier
	Nickname string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Tier, e.Nickname, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfig }

type RowError struct {
	Index    int
	Nickname string
	Reason   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%q): %s", e.Index, e.Nickname, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrInvalidRow }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func percent(v float64) bool {
	return finite(v) && v >= 0 && v <= 100
}

// ValidateConfig checks a single rule set. All problems are reported together.
func ValidateConfig(tier domain.Tier, cfg domain.EntityConfig) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, &ConfigurationError{Tier: tier, Nickname: cfg.Nickname, Reason: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.Nickname) == "" {
		fail("nickname is required")
	}

	switch cfg.RakebackType {
	case "", domain.RakebackFlat:
		if !percent(cfg.Rakeback) {
			fail("rakeback %v outside [0,100]", cfg.Rakeback)
		}
	case domain.RakebackThreshold:
		if len(cfg.Thresholds) == 0 {
			fail("threshold rakeback needs at least one threshold")
		}
		for i, t := range cfg.Thresholds {
			if !finite(t.Start) || !finite(t.End) || t.Start > t.End {
				fail("threshold %d: invalid range [%v,%v]", i, t.Start, t.End)
			}
			if !percent(t.Percentage) {
				fail("threshold %d: percentage %v outside [0,100]", i, t.Percentage)
			}
		}
	default:
		fail("unknown rakeback type %q", cfg.RakebackType)
	}

	for i, r := range cfg.Routing {
		if !r.Type.Valid() {
			fail("routing %d: unknown target type %q", i, r.Type)
		}
		if strings.TrimSpace(r.Username) == "" {
			fail("routing %d: username is required", i)
		}
		if !percent(r.Percentage) {
			fail("routing %d: percentage %v outside [0,100]", i, r.Percentage)
		}
	}

	return errors.Join(errs...)
}

// ValidateRow checks one ingested row.
func ValidateRow(index int, row domain.RakeRow) error {
	var errs []error
	fail := func(reason string) {
		errs = append(errs, &RowError{Index: index, Nickname: row.Nickname, Reason: reason})
	}

	if strings.TrimSpace(row.Nickname) == "" {
		fail("nickname is required")
	}
	if !finite(row.Rake) || row.Rake < 0 {
		fail("rake must be a finite number >= 0")
	}
	if !finite(row.PL) {
		fail("pl must be a finite number")
	}

	return errors.Join(errs...)
}

// Validate checks every row and every rule of the bundle, including nickname
// uniqueness within each tier.
func Validate(rows []domain.RakeRow, bundle Bundle) error {
	var errs []error

	for i, row := range rows {
		if err := ValidateRow(i, row); err != nil {
			errs = append(errs, err)
		}
	}

	tiers := []struct {
		tier    domain.Tier
		configs []domain.EntityConfig
	}{
		{domain.TierPlayer, bundle.Players},
		{domain.TierAgent, bundle.Agents},
		{domain.TierSuperAgent, bundle.SuperAgents},
	}
	for _, t := range tiers {
		seen := make(map[string]struct{}, len(t.configs))
		for _, cfg := range t.configs {
			if err := ValidateConfig(t.tier, cfg); err != nil {
				errs = append(errs, err)
			}
			k := nameKey(cfg.Nickname)
			if _, dup := seen[k]; dup && k != "" {
				errs = append(errs, &ConfigurationError{Tier: t.tier, Nickname: cfg.Nickname, Reason: "duplicate nickname"})
			}
			seen[k] = struct{}{}
		}
	}

	if len(errs) > 0 && bundle.ClubID != "" {
		return fmt.Errorf("club %s: %w", bundle.ClubID, errors.Join(errs...))
	}
	return errors.Join(errs...)
}
