package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Relay/internal/domain"
)

const postColumns = `
	id, tenant_id, text, target_platforms, media_urls, hashtags, link_url,
	status, scheduled_for, retry_count, max_retries, platform_results,
	published_at, error, created_at, updated_at`

// PostRepo — репозиторий постов.
type PostRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepo создаёт новый PostRepo.
func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// Get возвращает пост арендатора по ID.
func (r *PostRepo) Get(ctx context.Context, id int64, tenantID string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND tenant_id = $2`
	return scanPost(r.pool.QueryRow(ctx, query, id, tenantID))
}

// TransitionStatus атомарно переводит пост в статус to, если текущий статус входит в from.
// Возвращает ErrStatusConflict, если пост отсутствует или в другом статусе.
func (r *PostRepo) TransitionStatus(ctx context.Context, id int64, from []domain.PostStatus, to domain.PostStatus) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE posts
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`, id, statusStrings(from), string(to))
	if err != nil {
		return fmt.Errorf("transition post status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// SaveOutcome записывает итог попытки публикации и строки истории в одной транзакции.
//
// Запись возможна только из PUBLISHING: итог пишет тот worker, что выполнил переход.
func (r *PostRepo) SaveOutcome(ctx context.Context, post *domain.Post, history []domain.HistoryEntry) error {
	resultsJSON, err := marshalResults(post.PlatformResults)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE posts
		SET status = $3, published_at = $4, error = $5, retry_count = $6,
		    platform_results = $7, updated_at = $8
		WHERE id = $1 AND tenant_id = $2 AND status = $9
	`,
		post.ID,
		post.TenantID,
		string(post.Status),
		post.PublishedAt,
		nullString(post.Error),
		post.RetryCount,
		resultsJSON,
		post.UpdatedAt,
		string(domain.PostStatusPublishing),
	)
	if err != nil {
		return fmt.Errorf("save post outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	if err := insertHistory(ctx, tx, history); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit outcome: %w", err)
	}
	return nil
}

// ListDue возвращает SCHEDULED посты с наступившим временем, самые ранние первыми.
func (r *PostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'SCHEDULED'
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $1
		ORDER BY scheduled_for ASC, id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// scanPost сканирует строку posts (pgx.Row или pgx.Rows).
func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		p           domain.Post
		platforms   []string
		linkURL     *string
		errText     *string
		status      string
		resultsJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Text,
		&platforms,
		&p.MediaURLs,
		&p.Hashtags,
		&linkURL,
		&status,
		&p.ScheduledFor,
		&p.RetryCount,
		&p.MaxRetries,
		&resultsJSON,
		&p.PublishedAt,
		&errText,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}

	p.Status = domain.PostStatus(status)
	p.TargetPlatforms = toPlatforms(platforms)
	if linkURL != nil {
		p.LinkURL = *linkURL
	}
	if errText != nil {
		p.Error = *errText
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &p.PlatformResults); err != nil {
			return nil, fmt.Errorf("unmarshal platform results: %w", err)
		}
	}

	return &p, nil
}

// marshalResults возвращает nil для пустых результатов (NULL в БД).
func marshalResults(results []domain.PlatformResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshal platform results: %w", err)
	}
	return data, nil
}
