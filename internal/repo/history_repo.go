package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Relay/internal/domain"
)

// HistoryRepo — репозиторий истории публикации.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo создаёт новый HistoryRepo.
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// InsertBatch вставляет записи истории одним batch'ем.
func (r *HistoryRepo) InsertBatch(ctx context.Context, entries []domain.HistoryEntry) error {
	return insertHistory(ctx, r.pool, entries)
}

// ListByPost возвращает историю поста, новые попытки первыми.
func (r *HistoryRepo) ListByPost(ctx context.Context, postID int64, tenantID string) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, post_id, tenant_id, platform, success, external_post_id, external_url,
		       error, attempted_at, impressions, likes, shares, comments, clicks, metrics_synced_at
		FROM publishing_history
		WHERE post_id = $1 AND tenant_id = $2
		ORDER BY attempted_at DESC, id ASC
	`, postID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			e                                            domain.HistoryEntry
			platform                                     string
			externalID, externalURL, errText             *string
			impressions, likes, shares, comments, clicks *int64
		)
		err := rows.Scan(
			&e.ID,
			&e.PostID,
			&e.TenantID,
			&platform,
			&e.Success,
			&externalID,
			&externalURL,
			&errText,
			&e.AttemptedAt,
			&impressions,
			&likes,
			&shares,
			&comments,
			&clicks,
			&e.MetricsSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		e.Platform = domain.Platform(platform)
		e.ExternalPostID = deref(externalID)
		e.ExternalURL = deref(externalURL)
		e.Error = deref(errText)
		if e.MetricsSyncedAt != nil {
			e.Metrics = &domain.Metrics{
				Impressions: derefInt(impressions),
				Likes:       derefInt(likes),
				Shares:      derefInt(shares),
				Comments:    derefInt(comments),
				Clicks:      derefInt(clicks),
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// insertHistory вставляет записи через pgx.Batch в пуле или транзакции.
func insertHistory(ctx context.Context, db DB, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO publishing_history (post_id, tenant_id, platform, success,
			                                external_post_id, external_url, error, attempted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			e.PostID,
			e.TenantID,
			string(e.Platform),
			e.Success,
			nullString(e.ExternalPostID),
			nullString(e.ExternalURL),
			nullString(e.Error),
			e.AttemptedAt,
		)
	}

	br := db.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert history: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close history batch: %w", err)
	}
	return nil
}
