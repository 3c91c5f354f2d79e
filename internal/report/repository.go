package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNoData signals that a report ran against empty tables.
var ErrNoData = errors.New("no data")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository answers the six analytics questions against the loaded dataset.
type Repository interface {
	UniqueUsers(ctx context.Context) (int64, error)
	DistinctProviders(ctx context.Context) ([]string, error)
	MostChangedProperty(ctx context.Context) (PropertyCount, error)
	ImpressionCount(ctx context.Context, provider, date string) (int64, error)
	TopAdForSegment(ctx context.Context, property, value string) (AdCount, error)
	TopAdsByReach(ctx context.Context, limit int) ([]AdCount, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// UniqueUsers counts distinct user ids in the users table.
func (r *PostgresRepository) UniqueUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM users
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unique users: %w", err)
	}
	return n, nil
}

// DistinctProviders lists the ad providers present in the marketing table.
func (r *PostgresRepository) DistinctProviders(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT provider
		FROM marketing
		ORDER BY provider
	`)
	if err != nil {
		return nil, fmt.Errorf("distinct providers: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct providers: %w", err)
	}
	return providers, nil
}

// MostChangedProperty returns the user property with the most change events.
func (r *PostgresRepository) MostChangedProperty(ctx context.Context) (PropertyCount, error) {
	var pc PropertyCount
	err := r.pool.QueryRow(ctx, `
		SELECT property, COUNT(1) AS counts
		FROM users
		GROUP BY 1
		ORDER BY 2 DESC
		LIMIT 1
	`).Scan(&pc.Property, &pc.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PropertyCount{}, ErrNoData
		}
		return PropertyCount{}, fmt.Errorf("most changed property: %w", err)
	}
	return pc, nil
}

// ImpressionCount counts marketing events for a provider on a calendar date.
func (r *PostgresRepository) ImpressionCount(ctx context.Context, provider, date string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM marketing
		WHERE provider = $1
		AND event_ts::DATE = $2::DATE
	`, provider, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("impressions for %s on %s: %w", provider, date, err)
	}
	return n, nil
}

// TopAdForSegment returns the ad shown most often to users matching a
// property/value segment. Matching is case-insensitive, like the source data.
func (r *PostgresRepository) TopAdForSegment(ctx context.Context, property, value string) (AdCount, error) {
	var ac AdCount
	err := r.pool.QueryRow(ctx, `
		SELECT a.ad_id, COUNT(1) AS counts
		FROM marketing AS a
		JOIN users AS b
		ON a.phone_id = b.phone_id
		WHERE UPPER(b.property) = UPPER($1)
		AND UPPER(b.value) = UPPER($2)
		GROUP BY 1
		ORDER BY 2 DESC
		LIMIT 1
	`, property, value).Scan(&ac.AdID, &ac.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdCount{}, ErrNoData
		}
		return AdCount{}, fmt.Errorf("top ad for %s=%s: %w", property, value, err)
	}
	return ac, nil
}

// TopAdsByReach ranks ads by the number of distinct phones that saw them.
func (r *PostgresRepository) TopAdsByReach(ctx context.Context, limit int) ([]AdCount, error) {
	if limit <= 0 {
		limit = DefaultTopAds
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.ad_id, COUNT(DISTINCT a.phone_id) AS counts
		FROM marketing AS a
		JOIN users AS b
		ON a.phone_id = b.phone_id
		GROUP BY 1
		ORDER BY 2 DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top ads by reach: %w", err)
	}
	defer rows.Close()

	var ads []AdCount
	for rows.Next() {
		var ac AdCount
		if err := rows.Scan(&ac.AdID, &ac.Count); err != nil {
			return nil, fmt.Errorf("scan ad count: %w", err)
		}
		ads = append(ads, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top ads by reach: %w", err)
	}
	return ads, nil
}
