// Package trading queries SPIMEX oil trading results.
package trading

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the calendar-date format used in storage and query parameters.
const DateLayout = "2006-01-02"

// DefaultDatesLimit is how many trading dates are returned when no limit is given.
const DefaultDatesLimit = 5

var (
	// ErrValidation marks a malformed filter or record.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidPeriod is returned when the period starts after it ends.
	ErrInvalidPeriod = errors.New("start date is after end date")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Trade is one row of exchange trading results.
type Trade struct {
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
	Date                time.Time `json:"date"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// Validate enforces the column limits of the results table, counted in characters.
func (t Trade) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"exchange_product_id", t.ExchangeProductID, 11},
		{"oil_id", t.OilID, 4},
		{"delivery_basis_id", t.DeliveryBasisID, 3},
		{"delivery_type_id", t.DeliveryTypeID, 1},
	}
	for _, c := range checks {
		if utf8.RuneCountInString(c.value) > c.max {
			return &ValidationError{Field: c.field, Reason: fmt.Sprintf("at most %d characters", c.max)}
		}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	return nil
}

// Filter narrows results by product attributes. Empty fields match everything.
type Filter struct {
	OilID           string
	DeliveryTypeID  string
	DeliveryBasisID string
}

// Normalize validates lengths and upper-cases the filter values.
func (f Filter) Normalize() (Filter, error) {
	f.OilID = strings.ToUpper(strings.TrimSpace(f.OilID))
	f.DeliveryTypeID = strings.ToUpper(strings.TrimSpace(f.DeliveryTypeID))
	f.DeliveryBasisID = strings.ToUpper(strings.TrimSpace(f.DeliveryBasisID))

	if f.OilID != "" && utf8.RuneCountInString(f.OilID) != 4 {
		return f, &ValidationError{Field: "oil_id", Reason: "must be exactly 4 characters"}
	}
	if f.DeliveryTypeID != "" && utf8.RuneCountInString(f.DeliveryTypeID) != 1 {
		return f, &ValidationError{Field: "delivery_type_id", Reason: "must be exactly 1 character"}
	}
	if f.DeliveryBasisID != "" && utf8.RuneCountInString(f.DeliveryBasisID) < 3 {
		return f, &ValidationError{Field: "delivery_basis_id", Reason: "must be at least 3 characters"}
	}
	return f, nil
}

// PeriodFilter selects trades between two calendar dates, inclusive.
// A zero End means today.
type PeriodFilter struct {
	Start time.Time
	End   time.Time
	Filter
}

// ParseDate accepts "2006-01-02" and date-times whose clock is midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return time.Time{}, fmt.Errorf("%q has a non-zero time component", s)
		}
		return truncateDate(t), nil
	}
	return time.Time{}, fmt.Errorf("%q is not a valid date", s)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
