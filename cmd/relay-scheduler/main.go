// Relay Scheduler — находит запланированные посты и ставит их на публикацию.
//
// Scheduler:
//   - По расписанию scanner.interval ставит в очередь задачу сканирования
//   - Потребляет очередь scan (плановые и ручные запуски)
//   - Цикл выполняется под глобальной блокировкой Redis: при нескольких
//     экземплярах сканирует только один, остальные пропускают тик
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
		fmt.Fprintln(os.Stderr, "relay-scheduler:", err)
		os.Exit(1)
	}
}

func run() error {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := app.Init(ctx, "scheduler")
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	logger := rt.Logger
	logger.Info("starting relay-scheduler")

	// Задачи publish потребляет relay-worker
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

	sc, err := rt.Scanner(repo.NewPostRepo(pool), q, rt.Events())
	if err != nil {
		return err
	}

	svc := scanner.NewService(sc, q, logger)
	svc.Start(ctx)

	repeater, err := rt.Repeater(q)
	if err != nil {
		return err
	}
	if err := repeater.Start(ctx); err != nil {
		return err
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	api.NewHandler(api.Config{Checks: rt.Checks(), Logger: logger}).RegisterOps(mux)
	app.Serve(ctx, cancel, rt.Settings.HTTP.Addr, mux, logger)

	// Ожидаем сигнал завершения
	<-ctx.Done()

	repeater.Stop()
	svc.Stop()

	logger.Info("relay-scheduler stopped")
	return nil
}
