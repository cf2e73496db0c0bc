package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/entsync/internal/models"
)

// Run запускает планировщик и блокируется до отмены контекста.
// Перед стартом операции, оборванные прошлым процессом в полёте,
// возвращаются в состояние queued и исполняются в исходном порядке.
func (q *Queue) Run(ctx context.Context) error {
	if err := q.recover(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	for {
		q.dispatch(ctx, &wg)

		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

// recover возвращает оборванные операции в очередь.
func (q *Queue) recover(ctx context.Context) error {
	ops, err := q.Pending(ctx)
	if err != nil {
		return err
	}
	for i := range ops {
		op := &ops[i]
		if op.State != models.OpStateInFlight && op.State != models.OpStateRetrying {
			continue
		}
		op.State = models.OpStateQueued
		if err := q.put(op); err != nil {
			return err
		}
		q.logger.Info("recovered interrupted operation", "seq", op.Seq, "kind", op.Kind)
	}
	return nil
}

// dispatch раздаёт готовые операции воркерам. Обход в порядке номеров
// гарантирует FIFO в пределах идентификатора: операция пропускается,
// пока у её идентификатора есть более ранняя незавершённая.
func (q *Queue) dispatch(ctx context.Context, wg *sync.WaitGroup) {
	ops, err := q.Pending(ctx)
	if err != nil {
		q.logger.Error("failed to read pending operations", "error", err)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	skipped := make(map[string]struct{})
	for i := range ops {
		op := ops[i]
		if len(q.busy) >= q.cfg.Concurrency {
			return
		}

		key := op.ID.Key()
		if _, b := q.busy[key]; b {
			skipped[key] = struct{}{}
			continue
		}
		if _, s := skipped[key]; s {
			// Более ранняя операция этого идентификатора не попала в
			// этот проход: нарушать порядок нельзя
			continue
		}

		q.busy[key] = struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.process(ctx, &op)

			q.mu.Lock()
			delete(q.busy, key)
			q.mu.Unlock()
			q.signal()
		}()
	}
}

// process исполняет одну операцию до терминального состояния.
func (q *Queue) process(ctx context.Context, op *models.QueuedOperation) {
	op.State = models.OpStateInFlight
	if err := q.put(op); err != nil {
		q.logger.Error("failed to persist operation state", "seq", op.Seq, "error", err)
		return
	}

	backoff := retry.WithMaxRetries(q.cfg.MaxRetries, retry.NewFibonacci(q.cfg.BaseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return q.attempt(ctx, op)
	})

	if err == nil {
		q.logger.Debug("operation succeeded", "seq", op.Seq, "kind", op.Kind, "local_id", op.ID.Local)
		if delErr := q.delete(op.Seq); delErr != nil {
			q.logger.Error("failed to delete completed operation", "seq", op.Seq, "error", delErr)
		}
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Процесс останавливается: операция остаётся в очереди и
		// возобновится после рестарта
		op.State = models.OpStateQueued
		if putErr := q.put(op); putErr != nil {
			q.logger.Error("failed to requeue operation", "seq", op.Seq, "error", putErr)
		}
		return
	}

	// Терминальный отказ: сообщаем обработчикам, операция уничтожается
	q.logger.Error("operation failed terminally",
		"seq", op.Seq, "kind", op.Kind, "entity_type", op.EntityType,
		"local_id", op.ID.Local, "retries", op.Retries, "error", err)
	q.notifyTerminal(ctx, op, err)
	if delErr := q.delete(op.Seq); delErr != nil {
		q.logger.Error("failed to delete failed operation", "seq", op.Seq, "error", delErr)
	}
}

// attempt — одна попытка исполнения. Цепочка обработчиков получает
// право первого отказа на каждый исход прежде, чем применится политика
// повторов по умолчанию.
func (q *Queue) attempt(ctx context.Context, op *models.QueuedOperation) error {
	resp, execErr := q.exec.Execute(ctx, op)

	decision := DecisionContinue
	for _, h := range q.handlers {
		decision = h.HandleOutcome(ctx, Outcome{Op: op.Clone(), Response: resp, Err: execErr})
		if decision != DecisionContinue {
			break
		}
	}

	switch decision {
	case DecisionResolved:
		return nil
	case DecisionFail:
		if execErr == nil {
			execErr = errors.New("operation vetoed by response handler")
		}
		return execErr
	case DecisionRetry:
		return q.markRetry(op, execErr)
	default:
		if execErr == nil {
			return nil
		}
		if models.IsTransient(execErr) {
			return q.markRetry(op, execErr)
		}
		return execErr
	}
}

func (q *Queue) markRetry(op *models.QueuedOperation, cause error) error {
	op.Retries++
	op.State = models.OpStateRetrying
	if err := q.put(op); err != nil {
		q.logger.Error("failed to persist retry state", "seq", op.Seq, "error", err)
	}
	if cause == nil {
		cause = models.ErrBackendUnavailable
	}
	q.logger.Warn("operation will retry",
		"seq", op.Seq, "kind", op.Kind, "retries", op.Retries, "error", cause)
	return retry.RetryableError(cause)
}

func (q *Queue) notifyTerminal(ctx context.Context, op *models.QueuedOperation, cause error) {
	for _, h := range q.handlers {
		th, ok := h.(TerminalHandler)
		if !ok {
			continue
		}
		if err := th.HandleTerminal(ctx, op.Clone(), cause); err != nil {
			q.logger.Error("terminal handler failed", "seq", op.Seq, "error", err)
		}
	}
}
