package scanner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/Relay/internal/queue"
)

// Service потребляет очередь scan и передаёт задачи в Scanner.
type Service struct {
	scanner  *Scanner
	consumer queue.Consumer
	logger   *slog.Logger

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewService создаёт Service.
func NewService(scanner *Scanner, consumer queue.Consumer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scanner: scanner, consumer: consumer, logger: logger}
}

// Start запускает потребление. Не блокирует.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancelFunc = context.WithCancel(ctx)

	s.logger.Info("scan consumer starting")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Циклы не пересекаются и в одном процессе
		err := s.consumer.Consume(ctx, queue.QueueScan, queue.ConsumerOptions{Concurrency: 1}, s.scanner.HandleJob)
		if err != nil && ctx.Err() == nil {
			s.logger.Error("scan consumer stopped", "error", err)
		}
	}()
}

// Stop останавливает потребление и ждёт текущий цикл.
func (s *Service) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
	s.logger.Info("scan consumer stopped")
}
