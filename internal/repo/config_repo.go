package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Relay/internal/domain"
)

// ConfigRepo — репозиторий настроек публикации арендаторов.
type ConfigRepo struct {
	pool *pgxpool.Pool
}

// NewConfigRepo создаёт новый ConfigRepo.
func NewConfigRepo(pool *pgxpool.Pool) *ConfigRepo {
	return &ConfigRepo{pool: pool}
}

// Get возвращает настройки арендатора. ErrNotFound, если их нет.
func (r *ConfigRepo) Get(ctx context.Context, tenantID string) (*domain.PublishingConfig, error) {
	var (
		cfg       domain.PublishingConfig
		credsJSON []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT tenant_id, credentials, shorten_urls, auto_hashtags, default_timezone
		FROM publishing_configs
		WHERE tenant_id = $1
	`, tenantID).Scan(
		&cfg.TenantID,
		&credsJSON,
		&cfg.ShortenURLs,
		&cfg.AutoHashtags,
		&cfg.DefaultTimezone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get publishing config: %w", err)
	}

	creds, err := decodeCredentials(credsJSON)
	if err != nil {
		return nil, err
	}
	cfg.Credentials = creds

	return &cfg, nil
}

// decodeCredentials парсит JSONB вида {"TWITTER": {"access_token": ...}}.
// Ключи платформ приводятся к верхнему регистру, неизвестные отбрасываются.
func decodeCredentials(data []byte) (map[domain.Platform]domain.Credentials, error) {
	raw := map[string]domain.Credentials{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal credentials: %w", err)
		}
	}

	creds := make(map[domain.Platform]domain.Credentials, len(raw))
	for key, c := range raw {
		p, err := domain.ParsePlatform(key)
		if err != nil {
			continue
		}
		creds[p] = c
	}
	return creds, nil
}
