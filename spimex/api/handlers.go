package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/trading"
)

// TradingService answers the trading results queries.
type TradingService interface {
	LatestTradingDates(ctx context.Context, limit int) ([]string, error)
	TradingPeriod(ctx context.Context, p trading.PeriodFilter) ([]trading.Trade, error)
	LatestTrade(ctx context.Context, f trading.Filter) ([]trading.Trade, error)
}

// Handlers serves the results endpoints through the read-through cache.
type Handlers struct {
	svc    TradingService
	cache  *cache.ReadThrough
	logger zerolog.Logger
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(svc TradingService, rt *cache.ReadThrough, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, cache: rt, logger: logger}
}

// tradeDateLayout renders the trade date as a zone-less midnight datetime,
// e.g. 2025-07-01T00:00:00.
const tradeDateLayout = "2006-01-02T15:04:05"

type tradeResponse struct {
	ID                  int64     `json:"id"`
	ExchangeProductID   string    `json:"exchange_product_id"`
	ExchangeProductName string    `json:"exchange_product_name"`
	OilID               string    `json:"oil_id"`
	DeliveryBasisID     string    `json:"delivery_basis_id"`
	DeliveryBasisName   string    `json:"delivery_basis_name"`
	DeliveryTypeID      string    `json:"delivery_type_id"`
	Volume              int64     `json:"volume"`
	Total               int64     `json:"total"`
	Count               int64     `json:"count"`
	Date                string    `json:"date"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

func toResponse(trades []trading.Trade) []tradeResponse {
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeResponse{
			ID:                  t.ID,
			ExchangeProductID:   t.ExchangeProductID,
			ExchangeProductName: t.ExchangeProductName,
			OilID:               t.OilID,
			DeliveryBasisID:     t.DeliveryBasisID,
			DeliveryBasisName:   t.DeliveryBasisName,
			DeliveryTypeID:      t.DeliveryTypeID,
			Volume:              t.Volume,
			Total:               t.Total,
			Count:               t.Count,
			Date:                t.Date.Format(tradeDateLayout),
			CreatedOn:           t.CreatedOn,
			UpdatedOn:           t.UpdatedOn,
		})
	}
	return out
}

// Root identifies the API.
func (h *Handlers) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"API": "Spimex Trading Results"})
}

// Healthy is the liveness probe.
func (h *Handlers) Healthy(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "Healthy"})
}

// LatestTradingDates handles GET /results/latest_trading_dates.
func (h *Handlers) LatestTradingDates(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		return h.svc.LatestTradingDates(ctx, limit)
	})
}

// TradingPeriod handles GET /results/trading_period.
func (h *Handlers) TradingPeriod(c echo.Context) error {
	period, err := parsePeriod(c)
	if err != nil {
		return err
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		trades, err := h.svc.TradingPeriod(ctx, period)
		if err != nil {
			return nil, err
		}
		return toResponse(trades), nil
	})
}

// LatestTrade handles GET /results/latest_trade.
func (h *Handlers) LatestTrade(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		trades, err := h.svc.LatestTrade(ctx, f)
		if err != nil {
			return nil, err
		}
		return toResponse(trades), nil
	})
}

// cached serves a stored payload when there is one. Otherwise it runs load,
// responds, and only then hands the payload to the background writer.
func (h *Handlers) cached(c echo.Context, load func(ctx context.Context) (any, error)) error {
	ctx := c.Request().Context()
	key := cache.KeyFromRequest(c.Request())

	if payload, ok := h.cache.Lookup(ctx, key); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	data, err := load(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := c.JSONBlob(http.StatusOK, payload); err != nil {
		return err
	}

	h.cache.Populate(key, payload)
	return nil
}

// errorHandler renders errors as {"detail": ...} with the status each
// error class maps to.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		detail := any(http.StatusText(code))

		var httpErr *echo.HTTPError
		switch {
		case errors.Is(err, trading.ErrInvalidPeriod):
			code, detail = http.StatusBadRequest, "Start day should be lower than end date."
		case errors.Is(err, trading.ErrValidation):
			code, detail = http.StatusUnprocessableEntity, err.Error()
		case errors.As(err, &httpErr):
			code, detail = httpErr.Code, httpErr.Message
		default:
			reqLogger := loggerFrom(c, logger)
			reqLogger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]any{"detail": detail})
		}
		if writeErr != nil {
			reqLogger := loggerFrom(c, logger)
			reqLogger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}
