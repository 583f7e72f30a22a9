package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Relay/internal/queue"
)

// DefaultSchedule — расписание сканирования по умолчанию.
const DefaultSchedule = "@every 1m"

// cronParser — парсер расписаний: 5 полей или дескрипторы (@every, @hourly).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule проверяет cron-выражение расписания.
func ValidateSchedule(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}
	return nil
}

// Repeater по расписанию ставит в очередь задачу сканирования {manual:false}.
//
// Job id scan:<unix тика> одинаков у всех экземпляров для расписаний,
// привязанных к часам, поэтому тик попадает в очередь один раз.
type Repeater struct {
	producer  queue.Producer
	spec      string
	batchSize int
	logger    *slog.Logger

	cron *cron.Cron
	ctx  context.Context

	cancelFunc context.CancelFunc
}

// RepeaterConfig — конфигурация Repeater.
type RepeaterConfig struct {
	Producer queue.Producer

	// Schedule — cron-выражение (default: "@every 1m").
	Schedule string

	// BatchSize — размер выборки в задаче (default: 50).
	BatchSize int

	Logger *slog.Logger
}

// NewRepeater создаёт Repeater. Некорректное расписание — ошибка.
func NewRepeater(cfg RepeaterConfig) (*Repeater, error) {
	spec := cfg.Schedule
	if spec == "" {
		spec = DefaultSchedule
	}
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Repeater{
		producer:  cfg.Producer,
		spec:      spec,
		batchSize: ClampBatchSize(cfg.BatchSize, DefaultBatchSize),
		logger:    logger,
	}, nil
}

// Start запускает расписание. Не блокирует.
func (r *Repeater) Start(ctx context.Context) error {
	r.ctx, r.cancelFunc = context.WithCancel(ctx)
	r.cron = cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	if _, err := r.cron.AddFunc(r.spec, func() { r.Tick(r.ctx, time.Now()) }); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, r.spec, err)
	}

	r.logger.Info("scan repeater starting", "schedule", r.spec, "batch_size", r.batchSize)
	r.cron.Start()
	return nil
}

// Stop останавливает расписание и ждёт завершения текущего тика.
func (r *Repeater) Stop() {
	r.logger.Info("scan repeater stopping")

	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}

	r.logger.Info("scan repeater stopped")
}

// Tick ставит задачу сканирования для тика at.
func (r *Repeater) Tick(ctx context.Context, at time.Time) {
	jobID := fmt.Sprintf("scan:%d", at.Truncate(time.Second).Unix())

	added, err := r.producer.Add(ctx, queue.QueueScan, queue.JobScanScheduledPosts,
		queue.ScanJob{BatchSize: r.batchSize},
		queue.AddOptions{JobID: jobID, Attempts: 1},
	)
	if err != nil {
		r.logger.Error("failed to enqueue scan job", "job_id", jobID, "error", err)
		return
	}
	if !added {
		r.logger.Debug("scan job already enqueued", "job_id", jobID)
		return
	}
	r.logger.Debug("scan job enqueued", "job_id", jobID)
}
