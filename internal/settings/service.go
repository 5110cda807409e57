package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// Provider exposes named configuration values with caller-supplied
// defaults. Lookups never fail: a missing key or a storage error yields
// the default. Values are read live on every call; callers may cache
// per request but settings can change between requests.
type Provider interface {
	GetFloat(ctx context.Context, key string, def float64) float64
	GetInt(ctx context.Context, key string, def int) int
	GetString(ctx context.Context, key, def string) string
}

// Service implements Provider on top of the settings repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	value, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) && s.logger != nil {
			s.logger.Warn("settings lookup failed, using default", slog.String("key", key), slog.Any("error", err))
		}
		return "", false
	}
	return value, true
}

// GetString returns the value for key, or def when unset.
func (s *Service) GetString(ctx context.Context, key, def string) string {
	if value, ok := s.lookup(ctx, key); ok {
		return value
	}
	return def
}

// GetFloat returns the value for key parsed as a float, or def.
func (s *Service) GetFloat(ctx context.Context, key string, def float64) float64 {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("settings value not numeric, using default", slog.String("key", key), slog.String("value", value))
		}
		return def
	}
	return f
}

// GetInt returns the value for key parsed as an int, or def.
func (s *Service) GetInt(ctx context.Context, key string, def int) int {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("settings value not numeric, using default", slog.String("key", key), slog.String("value", value))
		}
		return def
	}
	return n
}

// Set stores a value. Powers the settings editing surface.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: setting key required", shared.ErrValidation)
	}
	return s.repo.Set(ctx, key, value)
}

// List returns all stored settings.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

// GSTRate returns the GST percentage applied to quote subtotals.
func GSTRate(ctx context.Context, p Provider) float64 {
	return p.GetFloat(ctx, KeyGSTRate, DefaultGSTRate)
}

// LabourRate resolves the hourly rate for a labour rate type.
func LabourRate(ctx context.Context, p Provider, rateType string) float64 {
	if rateType == "premium" {
		return p.GetFloat(ctx, KeyLabourRatePremium, DefaultLabourRatePremium)
	}
	return p.GetFloat(ctx, KeyLabourRateStandard, DefaultLabourRateStandard)
}

// QuoteValidityDays returns how long a quote stays valid by default.
func QuoteValidityDays(ctx context.Context, p Provider) int {
	return p.GetInt(ctx, KeyQuoteValidityDays, DefaultQuoteValidityDays)
}
