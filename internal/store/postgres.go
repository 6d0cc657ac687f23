package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for ad tracking events.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// AdEvent is a single recorded impression/click.
// StorageKey is the dedup key when one could be built (Deduped=true),
// otherwise a generated UUID that never collides.
type AdEvent struct {
	TenantID    string
	StorageKey  string
	Type        string
	AdID        string
	PageKey     string
	IdentityKey string
	EventID     string
	Deduped     bool
	Timestamp   time.Time
}

// InsertAdEvent persists an event and returns inserted=false when it is a duplicate.
//
// Duplicate detection is enforced by the database constraint on
// (tenant_id, storage_key), which is compatible with retries and
// at-least-once beacon delivery.
func (p *PostgresStore) InsertAdEvent(ctx context.Context, ev AdEvent) (bool, error) {
	if ev.TenantID == "" || ev.StorageKey == "" || ev.Type == "" || ev.AdID == "" {
		return false, errors.New("tenantID/storageKey/type/adID required")
	}

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO ad_events(tenant_id, storage_key, event_type, ad_id, page_key, identity_key, event_id, deduped, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (tenant_id, storage_key) DO NOTHING
		RETURNING 1
	`, ev.TenantID, ev.StorageKey, ev.Type, ev.AdID, ev.PageKey, ev.IdentityKey, ev.EventID, ev.Deduped, ev.Timestamp).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// CountAdEvents returns the number of recorded events for
// (tenantID, adID, eventType) in the time window [from,to).
// Using a half-open interval avoids double counting at window boundaries.
// pageKey is an optional filter; empty matches all pages.
func (p *PostgresStore) CountAdEvents(
	ctx context.Context,
	tenantID string,
	adID string,
	eventType string,
	pageKey string,
	from time.Time,
	to time.Time,
) (int64, error) {

	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ad_events
		WHERE tenant_id=$1
		  AND ad_id=$2
		  AND event_type=$3
		  AND ($4 = '' OR page_key=$4)
		  AND ts >= $5
		  AND ts <  $6
	`, tenantID, adID, eventType, pageKey, from, to).Scan(&count)

	return count, err
}
