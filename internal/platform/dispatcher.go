package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Relay/internal/domain"
)

// DefaultEndpoints — базовые URL API провайдеров.
// Арендатор может переопределить адрес через Credentials.Endpoint.
var DefaultEndpoints = map[domain.Platform]string{
	domain.PlatformTwitter:   "https://api.twitter.com/2",
	domain.PlatformLinkedIn:  "https://api.linkedin.com/rest",
	domain.PlatformFacebook:  "https://graph.facebook.com/v19.0",
	domain.PlatformInstagram: "https://graph.instagram.com/v19.0",
	domain.PlatformMastodon:  "https://mastodon.social/api/v1",
	domain.PlatformThreads:   "https://graph.threads.net/v1.0",
}

// Dispatcher реализует Adapter поверх клиентов платформ.
type Dispatcher struct {
	clients map[domain.Platform]Client
	logger  *slog.Logger
}

// NewDispatcher создаёт пустой Dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		clients: make(map[domain.Platform]Client),
		logger:  logger,
	}
}

// NewDefaultDispatcher регистрирует HTTPClient для всех платформ из DefaultEndpoints.
func NewDefaultDispatcher(logger *slog.Logger) *Dispatcher {
	d := NewDispatcher(logger)
	for p, url := range DefaultEndpoints {
		d.Register(p, NewHTTPClient(url))
	}
	return d
}

// Register добавляет клиент платформы.
func (d *Dispatcher) Register(p domain.Platform, c Client) {
	d.clients[p] = c
}

// resolve возвращает клиент и учётные данные платформы.
func (d *Dispatcher) resolve(p domain.Platform, cfg *domain.PublishingConfig) (Client, domain.Credentials, error) {
	client, ok := d.clients[p]
	if !ok {
		return nil, domain.Credentials{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
	creds, ok := cfg.CredentialsFor(p)
	if !ok {
		return nil, domain.Credentials{}, fmt.Errorf("%w: %s", ErrNoCredentials, p)
	}
	return client, creds, nil
}

// Publish публикует пост на все целевые платформы последовательно.
//
// Транспортная ошибка одной платформы — её неуспешный результат. Если
// транспортом отказали все платформы, возвращается ErrTransport.
func (d *Dispatcher) Publish(ctx context.Context, post *domain.Post, cfg *domain.PublishingConfig) ([]domain.PlatformResult, error) {
	return d.publish(ctx, post, cfg, nil)
}

// SchedulePost передаёт провайдерам время отложенного размещения.
func (d *Dispatcher) SchedulePost(ctx context.Context, post *domain.Post, cfg *domain.PublishingConfig, at time.Time) ([]domain.PlatformResult, error) {
	return d.publish(ctx, post, cfg, &at)
}

func (d *Dispatcher) publish(ctx context.Context, post *domain.Post, cfg *domain.PublishingConfig, at *time.Time) ([]domain.PlatformResult, error) {
	content := PrepareContent(post, cfg)
	content.ScheduledAt = at

	results := make([]domain.PlatformResult, 0, len(post.TargetPlatforms))
	var (
		transportFailures int
		lastTransportErr  error
	)

	for _, p := range post.TargetPlatforms {
		result := domain.PlatformResult{Platform: p}

		client, creds, err := d.resolve(p, cfg)
		if err == nil {
			var published Published
			published, err = client.Publish(ctx, creds, content)
			if err == nil {
				result.Success = true
				result.ExternalPostID = published.ExternalPostID
				result.ExternalURL = published.ExternalURL
			}
		}

		if err != nil {
			if errors.Is(err, ErrTransport) {
				transportFailures++
				lastTransportErr = err
			}
			result.Error = err.Error()
			d.logger.Warn("platform publish failed",
				"post_id", post.ID,
				"platform", p,
				"error", err,
			)
		}

		results = append(results, result)
	}

	if len(results) > 0 && transportFailures == len(results) {
		return nil, lastTransportErr
	}

	return results, nil
}

// DeletePost удаляет пост у провайдера.
func (d *Dispatcher) DeletePost(ctx context.Context, p domain.Platform, externalID string, cfg *domain.PublishingConfig) error {
	client, creds, err := d.resolve(p, cfg)
	if err != nil {
		return err
	}
	return client.Delete(ctx, creds, externalID)
}

// GetPostMetrics возвращает метрики поста у провайдера.
func (d *Dispatcher) GetPostMetrics(ctx context.Context, p domain.Platform, externalID string, cfg *domain.PublishingConfig) (domain.Metrics, error) {
	client, creds, err := d.resolve(p, cfg)
	if err != nil {
		return domain.Metrics{}, err
	}
	return client.Metrics(ctx, creds, externalID)
}

// GetConnectedPlatforms возвращает платформы с клиентом и учётными данными.
func (d *Dispatcher) GetConnectedPlatforms(_ context.Context, cfg *domain.PublishingConfig) []domain.Platform {
	var connected []domain.Platform
	for _, p := range domain.AllPlatforms {
		if _, _, err := d.resolve(p, cfg); err == nil {
			connected = append(connected, p)
		}
	}
	return connected
}

// ValidateCredentials проверяет токен арендатора у провайдера.
func (d *Dispatcher) ValidateCredentials(ctx context.Context, p domain.Platform, cfg *domain.PublishingConfig) error {
	client, creds, err := d.resolve(p, cfg)
	if err != nil {
		return err
	}
	return client.Verify(ctx, creds)
}
