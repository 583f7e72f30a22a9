package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Имена очередей pipeline.
const (
	QueuePublish = "publish"
	QueueScan    = "scan"
)

// Имена задач.
const (
	JobPublishPost        = "publish-post"
	JobScanScheduledPosts = "scan-scheduled-posts"
)

// maxBackoff — верхняя граница задержки между попытками.
const maxBackoff = 30 * time.Minute

// BackoffType — стратегия задержки между попытками.
type BackoffType string

const (
	BackoffExponential BackoffType = "exponential"
	BackoffFixed       BackoffType = "fixed"
)

// Backoff — политика задержки перед повтором.
type Backoff struct {
	Type  BackoffType   `json:"type"`
	Delay time.Duration `json:"delay"`
}

// Next возвращает задержку перед следующей попыткой после attempt (1-based).
//
//	exponential: delay * 2^(attempt-1), не более 30m
//	fixed:       delay
func (b Backoff) Next(attempt int) time.Duration {
	if b.Delay <= 0 {
		return 0
	}
	if b.Type != BackoffExponential || attempt <= 1 {
		return min(b.Delay, maxBackoff)
	}

	delay := b.Delay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Job — задача в очереди.
type Job struct {
	// ID — идентификатор задачи; пока задача не завершена, повторный Add с тем же ID — no-op.
	ID string `json:"id"`

	Queue   string          `json:"queue"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`

	// Attempt — номер текущей попытки (начиная с 1).
	Attempt     int     `json:"attempt"`
	MaxAttempts int     `json:"max_attempts"`
	Backoff     Backoff `json:"backoff"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// next возвращает копию задачи для следующей попытки.
func (j *Job) next() *Job {
	n := *j
	n.Attempt++
	n.EnqueuedAt = time.Now()
	return &n
}

// AddOptions — параметры постановки задачи.
type AddOptions struct {
	// JobID — ключ дедупликации. Пустой — генерируется.
	JobID string

	// Delay — задержка перед первой попыткой.
	Delay time.Duration

	// Attempts — максимум попыток (default: 1).
	Attempts int

	Backoff Backoff
}

// PublishJob — payload задачи публикации поста.
type PublishJob struct {
	PostID   int64  `json:"postId"`
	TenantID string `json:"tenantId"`
}

// PublishJobID — ключ дедупликации задачи публикации: один пост — одна задача.
func PublishJobID(postID int64) string {
	return fmt.Sprintf("publish:%d", postID)
}

// ScanJob — payload задачи сканирования запланированных постов.
type ScanJob struct {
	BatchSize int  `json:"batchSize"`
	Manual    bool `json:"manual"`
}

// Decode парсит payload задачи в указанный тип.
func Decode[T any](job *Job) (T, error) {
	var result T
	if err := json.Unmarshal(job.Payload, &result); err != nil {
		return result, fmt.Errorf("unmarshal %s payload: %w", job.Name, err)
	}
	return result, nil
}
