package scanner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Relay/internal/queue"
)

// Trigger ставит в очередь ручной цикл сканирования.
type Trigger struct {
	producer  queue.Producer
	batchSize int
}

// NewTrigger создаёт Trigger. batchSize — значение по умолчанию для ручных запусков.
func NewTrigger(producer queue.Producer, batchSize int) *Trigger {
	return &Trigger{producer: producer, batchSize: ClampBatchSize(batchSize, DefaultBatchSize)}
}

// Trigger ставит задачу {batchSize, manual:true} без задержки и возвращает её job id.
// Отрицательный batchSize — ошибка; ноль означает значение по умолчанию.
func (t *Trigger) Trigger(ctx context.Context, batchSize int) (string, error) {
	if batchSize < 0 {
		return "", ErrInvalidBatchSize
	}

	jobID := "scan:manual:" + uuid.New().String()
	payload := queue.ScanJob{
		BatchSize: ClampBatchSize(batchSize, t.batchSize),
		Manual:    true,
	}

	if _, err := t.producer.Add(ctx, queue.QueueScan, queue.JobScanScheduledPosts, payload,
		queue.AddOptions{JobID: jobID, Attempts: 1},
	); err != nil {
		return "", fmt.Errorf("enqueue manual scan: %w", err)
	}
	return jobID, nil
}
