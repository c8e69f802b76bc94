//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/adapters"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/db"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/trading"
)

// RunSmoke checks a deployment's storage stack end to end: libsql connect and
// migrate, a query through the trading service, and a cache round trip
// against a live redis. dbPath is removed afterwards.
func RunSmoke(ctx context.Context, dbPath, redisAddr string, cutoff cache.Cutoff) error {
	fmt.Println("Smoke test: database and response cache")
	defer os.Remove(dbPath)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	conn, err := db.Connect(ctx, config.DatabaseConfig{URL: "file:" + dbPath}, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if _, err := db.Migrate(ctx, conn, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("OK: migrations")

	svc := trading.NewService(trading.NewRepository(conn), time.UTC, nil)
	if _, err := svc.Import(ctx, []trading.Trade{{
		ExchangeProductID:   "A592ACH005A",
		ExchangeProductName: "smoke",
		OilID:               "A592",
		DeliveryBasisID:     "ACH",
		DeliveryBasisName:   "smoke",
		DeliveryTypeID:      "A",
		Volume:              1,
		Total:               1,
		Count:               1,
		Date:                svc.Today(),
	}}); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	trades, err := svc.LatestTrade(ctx, trading.Filter{})
	if err != nil || len(trades) != 1 {
		return fmt.Errorf("latest trade returned %d rows: %v", len(trades), err)
	}
	fmt.Println("OK: trading queries")

	store := adapters.NewRedisStore(redis.NewClient(&redis.Options{Addr: redisAddr}))
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	key := cache.DeriveKey("/smoke", "GET", "ts="+time.Now().Format(time.RFC3339Nano))
	ttl := cache.NewTTLCalculator(cutoff, time.Local, nil).Seconds()
	if err := store.Set(ctx, key, []byte(`{"ok":true}`), ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	_ = store.Delete(ctx, key)
	fmt.Printf("OK: cache round trip (%d bytes, ttl %ds)\n", len(got), ttl)

	fmt.Println("Smoke checks completed.")
	return nil
}
