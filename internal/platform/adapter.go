package platform

import (
	"context"
	"time"

	"github.com/shaiso/Relay/internal/domain"
)

// Adapter — capability интерфейс провайдера публикации.
type Adapter interface {
	// Publish публикует пост на все TargetPlatforms. Ошибка — ни одна платформа не опробована.
	Publish(ctx context.Context, post *domain.Post, cfg *domain.PublishingConfig) ([]domain.PlatformResult, error)

	// SchedulePost передаёт провайдерам нативное отложенное размещение.
	SchedulePost(ctx context.Context, post *domain.Post, cfg *domain.PublishingConfig, at time.Time) ([]domain.PlatformResult, error)

	DeletePost(ctx context.Context, platform domain.Platform, externalID string, cfg *domain.PublishingConfig) error

	GetPostMetrics(ctx context.Context, platform domain.Platform, externalID string, cfg *domain.PublishingConfig) (domain.Metrics, error)

	// GetConnectedPlatforms — платформы, для которых у арендатора есть учётные данные и клиент.
	GetConnectedPlatforms(ctx context.Context, cfg *domain.PublishingConfig) []domain.Platform

	ValidateCredentials(ctx context.Context, platform domain.Platform, cfg *domain.PublishingConfig) error
}

// Content — подготовленный к отправке текст поста.
type Content struct {
	Text        string   `json:"text"`
	MediaURLs   []string `json:"media_urls,omitempty"`
	LinkURL     string   `json:"link_url,omitempty"`
	ShortenURLs bool     `json:"shorten_urls"`

	// ScheduledAt — для нативного отложенного размещения.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Published — ответ провайдера на успешную публикацию.
type Published struct {
	ExternalPostID string `json:"id"`
	ExternalURL    string `json:"url"`
}

// Client — клиент API одной платформы.
type Client interface {
	Publish(ctx context.Context, creds domain.Credentials, content Content) (Published, error)
	Delete(ctx context.Context, creds domain.Credentials, externalID string) error
	Metrics(ctx context.Context, creds domain.Credentials, externalID string) (domain.Metrics, error)
	Verify(ctx context.Context, creds domain.Credentials) error
}
