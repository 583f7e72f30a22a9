package app

import (
	"errors"
	"os"

	"github.com/shaiso/Relay/internal/events"
	"github.com/shaiso/Relay/internal/lock"
	"github.com/shaiso/Relay/internal/queue"
	"github.com/shaiso/Relay/internal/scanner"
)

// Scanner собирает сканер на открытом Redis: блокировка и хранилище последнего результата.
func (rt *Runtime) Scanner(posts scanner.DueLister, producer queue.Producer, sink events.Sink) (*scanner.Scanner, error) {
	if rt.Redis == nil {
		return nil, errors.New("scanner requires redis")
	}

	instance, _ := os.Hostname()
	cfg := rt.Settings.Scanner

	return scanner.New(scanner.Config{
		Lock: lock.New(lock.Config{
			Client:   rt.Redis,
			Instance: instance,
			Logger:   rt.Logger,
		}),
		Posts:        posts,
		Producer:     producer,
		Results:      scanner.NewStatusStore(rt.Redis),
		Events:       sink,
		Logger:       rt.Logger,
		LockTTL:      cfg.LockTTL,
		BatchSize:    cfg.BatchSize,
		BackoffDelay: cfg.BackoffDelay,
	}), nil
}

// Repeater создаёт планировщик задач сканирования по scanner.interval.
func (rt *Runtime) Repeater(producer queue.Producer) (*scanner.Repeater, error) {
	return scanner.NewRepeater(scanner.RepeaterConfig{
		Producer:  producer,
		Schedule:  rt.Settings.Scanner.Interval,
		BatchSize: rt.Settings.Scanner.BatchSize,
		Logger:    rt.Logger,
	})
}
