package trading

import (
	"context"
	"fmt"
	"time"
)

// Querier is the storage the service reads from and imports into.
type Querier interface {
	LatestTradingDates(ctx context.Context, limit int) ([]time.Time, error)
	TradingPeriod(ctx context.Context, start, end time.Time, f Filter) ([]Trade, error)
	LatestTrade(ctx context.Context, f Filter) ([]Trade, error)
	Insert(ctx context.Context, trades []Trade) (int, error)
}

// Service validates requests and runs them against a Querier.
type Service struct {
	store Querier
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a service. loc decides what "today" means for an open
// period; nil means time.Local. A nil now uses time.Now.
func NewService(store Querier, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, loc: loc, now: now}
}

// LatestTradingDates returns the most recent trading dates as YYYY-MM-DD,
// newest first. A negative limit yields an empty list.
func (s *Service) LatestTradingDates(ctx context.Context, limit int) ([]string, error) {
	if limit < 0 {
		limit = 0
	}
	dates, err := s.store.LatestTradingDates(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// TradingPeriod returns trades between p.Start and p.End (today when zero).
func (s *Service) TradingPeriod(ctx context.Context, p PeriodFilter) ([]Trade, error) {
	if p.Start.IsZero() {
		return nil, &ValidationError{Field: "start_date", Reason: "required"}
	}
	f, err := p.Filter.Normalize()
	if err != nil {
		return nil, err
	}

	start := truncateDate(p.Start)
	end := p.End
	if end.IsZero() {
		end = s.Today()
	}
	end = truncateDate(end)
	if start.After(end) {
		return nil, ErrInvalidPeriod
	}

	return s.store.TradingPeriod(ctx, start, end, f)
}

// LatestTrade returns the trades of the latest trading date.
func (s *Service) LatestTrade(ctx context.Context, f Filter) ([]Trade, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	return s.store.LatestTrade(ctx, f)
}

// Import validates and stores trades.
func (s *Service) Import(ctx context.Context, trades []Trade) (int, error) {
	for i, t := range trades {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("trade %d: %w", i, err)
		}
	}
	return s.store.Insert(ctx, trades)
}

// Today returns the current calendar date in the service time zone.
func (s *Service) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
