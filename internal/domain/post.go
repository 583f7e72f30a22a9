package domain

import (
	"errors"
	"time"
)

// Тексты итоговой ошибки поста при неполной публикации.
const (
	ErrTextPartialPublish = "Some platforms failed to publish"
	ErrTextAllFailed      = "All platforms failed to publish"
)

// Post — единица контента для публикации на одной или нескольких платформах.
//
// Post создаётся API (DRAFT или SCHEDULED). Pipeline читает пост,
// переводит его в PUBLISHING и записывает итоговый статус и PlatformResults.
type Post struct {
	// ID — уникальный идентификатор поста.
	ID int64 `json:"id"`

	// TenantID — арендатор, которому принадлежит пост.
	TenantID string `json:"tenant_id"`

	// Text — текст поста.
	Text string `json:"text"`

	// TargetPlatforms — платформы для публикации (непустое множество).
	TargetPlatforms []Platform `json:"target_platforms"`

	MediaURLs []string `json:"media_urls,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	LinkURL   string   `json:"link_url,omitempty"`

	// Status — текущий статус.
	Status PostStatus `json:"status"`

	// ScheduledFor — время публикации. Заполнено только для SCHEDULED.
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`

	// RetryCount — количество выполненных повторов после транспортных ошибок.
	// Инвариант: 0 <= RetryCount <= MaxRetries.
	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	// PlatformResults — результаты последней попытки, по одному на платформу.
	PlatformResults []PlatformResult `json:"platform_results,omitempty"`

	// PublishedAt — время успешной публикации на всех платформах.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Error — итоговая ошибка (для FAILED и PARTIALLY_PUBLISHED).
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ошибки валидации поста.
var (
	ErrNoTargetPlatforms = errors.New("post has no target platforms")
	ErrRetryCountRange   = errors.New("retry count out of range")
)

// Validate проверяет инварианты поста.
func (p *Post) Validate() error {
	if len(p.TargetPlatforms) == 0 {
		return ErrNoTargetPlatforms
	}
	if p.RetryCount < 0 || p.MaxRetries < 0 || p.RetryCount > p.MaxRetries {
		return ErrRetryCountRange
	}
	return nil
}

// CanRetry проверяет, остался ли ещё повтор после транспортной ошибки.
// RetryCount считает уже назначенные повторы, поэтому при MaxRetries=3
// адаптер вызывается до 4 раз: первая попытка и три повтора. FAILED
// выставляется на четвёртом сбое, RetryCount при этом остаётся 3.
func (p *Post) CanRetry() bool {
	return p.RetryCount < p.MaxRetries
}

// ApplyResults записывает результаты попытки и выставляет итоговый статус.
func (p *Post) ApplyResults(results []PlatformResult, now time.Time) {
	status, errText := Aggregate(results)
	p.Status = status
	p.PlatformResults = results
	p.Error = errText
	p.UpdatedAt = now
	if status == PostStatusPublished {
		p.PublishedAt = &now
	}
}

// MarkFailed переводит пост в FAILED с текстом ошибки.
func (p *Post) MarkFailed(errText string, now time.Time) {
	p.Status = PostStatusFailed
	p.Error = errText
	p.UpdatedAt = now
}

// ScheduleRetry возвращает пост в исходный статус и увеличивает RetryCount,
// чтобы повторно доставленная задача прошла проверку статуса.
func (p *Post) ScheduleRetry(prev PostStatus, errText string, now time.Time) {
	p.Status = prev
	p.RetryCount++
	p.Error = errText
	p.UpdatedAt = now
}

// Aggregate вычисляет итоговый статус по результатам платформ.
//
//	все успешны       → PUBLISHED
//	ни одной успешной → FAILED
//	смешанно          → PARTIALLY_PUBLISHED
func Aggregate(results []PlatformResult) (PostStatus, string) {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	switch {
	case len(results) > 0 && succeeded == len(results):
		return PostStatusPublished, ""
	case succeeded == 0:
		return PostStatusFailed, ErrTextAllFailed
	default:
		return PostStatusPartiallyPublished, ErrTextPartialPublish
	}
}

// FailedPlatforms возвращает платформы, на которых публикация не удалась.
func FailedPlatforms(results []PlatformResult) []Platform {
	var failed []Platform
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r.Platform)
		}
	}
	return failed
}
