package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// pushPoll — период опроса очереди при доставке
const pushPoll = 200 * time.Millisecond

// Pending выводит операции, ожидающие доставки на сервер
func (a *App) Pending(ctx context.Context) error {
	ops, err := a.queue.Pending(ctx)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	if len(ops) == 0 {
		a.io.Println("Queue is empty")
		return nil
	}

	for _, op := range ops {
		a.io.Printf("#%d %s %s local=%s state=%s retries=%d\n",
			op.Seq, op.Kind, op.EntityType, op.ID.Local, op.State, op.Retries)
	}
	return nil
}

// Push запускает планировщик очереди и ждёт, пока все операции будут
// доставлены. Терминальные отказы остаются видимыми в логе.
func (a *App) Push(ctx context.Context) error {
	n, err := a.queue.Len(ctx)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}
	if n == 0 {
		a.io.Println("Queue is empty, nothing to push")
		return nil
	}

	a.io.Printf("Pushing %d operation(s)...\n", n)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.queue.Run(runCtx)
	}()

	ticker := time.NewTicker(pushPoll)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("queue run: %w", err)
			}
			return nil
		case <-ticker.C:
			left, err := a.queue.Len(runCtx)
			if err != nil {
				cancel()
				<-done
				return fmt.Errorf("read queue: %w", err)
			}
			if left == 0 {
				cancel()
				if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("queue run: %w", err)
				}
				a.io.Println("All operations delivered")
				return nil
			}
		}
	}
}
