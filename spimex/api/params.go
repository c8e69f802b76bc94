package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/trading"
)

func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return trading.DefaultDatesLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &trading.ValidationError{Field: "limit", Reason: "must be an integer"}
	}
	return limit, nil
}

func parseDateParam(c echo.Context, name string, required bool) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		if required {
			return time.Time{}, &trading.ValidationError{Field: name, Reason: "required"}
		}
		return time.Time{}, nil
	}
	d, err := trading.ParseDate(raw)
	if err != nil {
		return time.Time{}, &trading.ValidationError{Field: name, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

func parseFilter(c echo.Context) (trading.Filter, error) {
	return trading.Filter{
		OilID:           c.QueryParam("oil_id"),
		DeliveryTypeID:  c.QueryParam("delivery_type_id"),
		DeliveryBasisID: c.QueryParam("delivery_basis_id"),
	}.Normalize()
}

func parsePeriod(c echo.Context) (trading.PeriodFilter, error) {
	start, err := parseDateParam(c, "start_date", true)
	if err != nil {
		return trading.PeriodFilter{}, err
	}
	end, err := parseDateParam(c, "end_date", false)
	if err != nil {
		return trading.PeriodFilter{}, err
	}
	if !end.IsZero() && start.After(end) {
		return trading.PeriodFilter{}, trading.ErrInvalidPeriod
	}
	f, err := parseFilter(c)
	if err != nil {
		return trading.PeriodFilter{}, err
	}
	return trading.PeriodFilter{Start: start, End: end, Filter: f}, nil
}
