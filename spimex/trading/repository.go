package trading

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const tradeColumns = `id, exchange_product_id, exchange_product_name, oil_id,
	delivery_basis_id, delivery_basis_name, delivery_type_id,
	volume, total, count, date, created_on, updated_on`

// Repository implements trade lookups on the spimex_trading_results table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over an open, migrated database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LatestTradingDates returns up to limit distinct trading dates, newest first.
func (r *Repository) LatestTradingDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		return []time.Time{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM spimex_trading_results ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trading dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan trading date: %w", err)
		}
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt trading date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trading dates: %w", err)
	}
	return dates, nil
}

// TradingPeriod returns trades dated within [start, end], newest first.
func (r *Repository) TradingPeriod(ctx context.Context, start, end time.Time, f Filter) ([]Trade, error) {
	where := []string{"date >= ?", "date <= ?"}
	args := []any{start.Format(DateLayout), end.Format(DateLayout)}
	where, args = appendFilter(where, args, f)

	query := `SELECT ` + tradeColumns + ` FROM spimex_trading_results
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, id`
	return r.queryTrades(ctx, query, args...)
}

// LatestTrade returns trades from the most recent trading date, ordered by oil id.
func (r *Repository) LatestTrade(ctx context.Context, f Filter) ([]Trade, error) {
	where := []string{"date = (SELECT MAX(date) FROM spimex_trading_results)"}
	where, args := appendFilter(where, nil, f)

	query := `SELECT ` + tradeColumns + ` FROM spimex_trading_results
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY oil_id, id`
	return r.queryTrades(ctx, query, args...)
}

// Insert stores trades in a single transaction. Zero IDs are assigned by the database.
func (r *Repository) Insert(ctx context.Context, trades []Trade) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO spimex_trading_results (`+tradeColumns+`)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, t := range trades {
		created, updated := t.CreatedOn, t.UpdatedOn
		if created.IsZero() {
			created = now
		}
		if updated.IsZero() {
			updated = now
		}
		_, err := stmt.ExecContext(ctx,
			t.ID, t.ExchangeProductID, t.ExchangeProductName, t.OilID,
			t.DeliveryBasisID, t.DeliveryBasisName, t.DeliveryTypeID,
			t.Volume, t.Total, t.Count,
			t.Date.Format(DateLayout),
			created.Format(time.RFC3339Nano),
			updated.Format(time.RFC3339Nano),
		)
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return 0, fmt.Errorf("insert of trade %d failed and rollback failed: %v (original error: %w)", i, rollbackErr, err)
			}
			return 0, fmt.Errorf("failed to insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(trades), nil
}

func appendFilter(where []string, args []any, f Filter) ([]string, []any) {
	if f.OilID != "" {
		where = append(where, "oil_id = ?")
		args = append(args, f.OilID)
	}
	if f.DeliveryTypeID != "" {
		where = append(where, "delivery_type_id = ?")
		args = append(args, f.DeliveryTypeID)
	}
	if f.DeliveryBasisID != "" {
		where = append(where, "delivery_basis_id = ?")
		args = append(args, f.DeliveryBasisID)
	}
	return where, args
}

func (r *Repository) queryTrades(ctx context.Context, query string, args ...any) ([]Trade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	for rows.Next() {
		var t Trade
		var date, created, updated string
		if err := rows.Scan(
			&t.ID, &t.ExchangeProductID, &t.ExchangeProductName, &t.OilID,
			&t.DeliveryBasisID, &t.DeliveryBasisName, &t.DeliveryTypeID,
			&t.Volume, &t.Total, &t.Count,
			&date, &created, &updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if t.Date, err = time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("corrupt date on trade %d: %w", t.ID, err)
		}
		if t.CreatedOn, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("corrupt created_on on trade %d: %w", t.ID, err)
		}
		if t.UpdatedOn, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("corrupt updated_on on trade %d: %w", t.ID, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}
