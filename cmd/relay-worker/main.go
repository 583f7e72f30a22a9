// Relay Worker — публикует посты на платформы.
//
// Worker:
//   - Получает задачи publish из очереди
//   - Переводит пост в PUBLISHING и вызывает адаптер платформ
//   - Сохраняет итоговый статус и историю публикаций
//   - Транспортные сбои повторяет через очередь, пока не исчерпан maxRetries
//
// Workers масштабируются горизонтально. С драйвером очереди memory
// процесс сам запускает сканер запланированных постов и операторский API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Relay/internal/api"
	"github.com/shaiso/Relay/internal/app"
	"github.com/shaiso/Relay/internal/platform"
	"github.com/shaiso/Relay/internal/queue"
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/scanner"
	"github.com/shaiso/Relay/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "relay-worker:", err)
		os.Exit(1)
	}
}

func run() error {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := app.Init(ctx, "worker")
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	logger := rt.Logger
	logger.Info("starting relay-worker")

	pool, err := rt.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	if _, err := rt.OpenRedis(ctx); err != nil {
		return err
	}
	q, err := rt.OpenQueue()
	if err != nil {
		return err
	}
	sink := rt.Events()

	// Репозитории
	postRepo := repo.NewPostRepo(pool)
	configRepo := repo.NewConfigRepo(pool)

	processor := worker.NewProcessor(worker.ProcessorConfig{
		Posts:   postRepo,
		Configs: configRepo,
		Adapter: platform.NewDefaultDispatcher(logger),
		Events:  sink,
		Logger:  logger,
	})

	cfg := rt.Settings.Worker
	w := worker.New(worker.Config{
		Processor:   processor,
		Consumer:    q,
		Events:      sink,
		Concurrency: cfg.Concurrency,
		Limiter:     queue.Limiter{Max: cfg.LimiterMax, Duration: cfg.LimiterDuration},
		JobTimeout:  cfg.JobTimeout,
		Logger:      logger,
	})

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	// In-memory очередь видна только этому процессу
	var (
		scanSvc  *scanner.Service
		repeater *scanner.Repeater
		apiCfg   = api.Config{Checks: rt.Checks(), Logger: logger}
	)
	if rt.LocalQueue() {
		sc, err := rt.Scanner(postRepo, q, sink)
		if err != nil {
			return err
		}
		apiCfg.Trigger = scanner.NewTrigger(q, rt.Settings.Scanner.BatchSize)
		apiCfg.Status = sc
		apiCfg.Posts = postRepo
		apiCfg.History = repo.NewHistoryRepo(pool)

		scanSvc = scanner.NewService(sc, q, logger)
		scanSvc.Start(ctx)

		if repeater, err = rt.Repeater(q); err != nil {
			return err
		}
		if err := repeater.Start(ctx); err != nil {
			return err
		}
	}

	// HTTP mux: /healthz + /metrics, с memory ещё и /api/v1
	mux := http.NewServeMux()
	handler := api.NewHandler(apiCfg)
	if rt.LocalQueue() {
		handler.RegisterRoutes(mux)
	} else {
		handler.RegisterOps(mux)
	}
	app.Serve(ctx, cancel, rt.Settings.HTTP.Addr, mux, logger)

	// Ожидаем сигнал завершения
	<-ctx.Done()

	if repeater != nil {
		repeater.Stop()
	}
	if scanSvc != nil {
		scanSvc.Stop()
	}
	w.Stop()

	logger.Info("relay-worker stopped")
	return nil
}
