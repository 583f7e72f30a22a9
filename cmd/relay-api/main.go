// Relay API — операторский HTTP API.
//
// Маршруты:
//
//	POST /api/v1/scans                       ручной запуск сканирования
//	GET  /api/v1/scans/status                владелец блокировки и последний цикл
//	GET  /api/v1/posts/{id}/history          история публикаций поста
//	GET  /healthz, /metrics
//
// Задачи сканирования потребляет relay-worker или relay-scheduler, поэтому
// драйвер очереди memory не поддерживается: с ним relay-worker сам
// обслуживает эти маршруты.
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
	"github.com/shaiso/Relay/internal/repo"
	"github.com/shaiso/Relay/internal/scanner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "relay-api:", err)
		os.Exit(1)
	}
}

func run() error {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := app.Init(ctx, "api")
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	logger := rt.Logger
	logger.Info("starting relay-api")

	if err := rt.RequireSharedQueue(); err != nil {
		return err
	}

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

	postRepo := repo.NewPostRepo(pool)

	// Сканер нужен API только для Status (чтение блокировки и результата)
	sc, err := rt.Scanner(postRepo, q, rt.Events())
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Config{
		Trigger: scanner.NewTrigger(q, rt.Settings.Scanner.BatchSize),
		Status:  sc,
		Posts:   postRepo,
		History: repo.NewHistoryRepo(pool),
		Checks:  rt.Checks(),
		Logger:  logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	app.Serve(ctx, cancel, rt.Settings.HTTP.Addr, mux, logger)

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("relay-api stopped")
	return nil
}
