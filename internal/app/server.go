package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// shutdownTimeout — время на завершение активных HTTP запросов.
const shutdownTimeout = 10 * time.Second

// Serve запускает HTTP сервер и останавливает его после отмены ctx.
// Ошибка запуска отменяет процесс через cancel.
func Serve(ctx context.Context, cancel context.CancelFunc, addr string, handler http.Handler, logger *slog.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()
}
