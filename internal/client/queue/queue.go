// Package queue реализует долговечную упорядоченную очередь исходящих
// мутаций. Операции для одного идентификатора исполняются строго в
// порядке постановки; операции разных идентификаторов — параллельно до
// лимита. Содержимое очереди переживает рестарт процесса.
package queue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/entsync/internal/client/storage/boltdb"
	"github.com/iudanet/entsync/internal/models"
)

var bucketQueue = []byte("request_queue")

// Config настраивает планировщик очереди.
type Config struct {
	// Concurrency максимум одновременно исполняемых операций
	Concurrency int
	// MaxRetries предел повторов для временных ошибок
	MaxRetries uint64
	// BaseBackoff начальный интервал фибоначчиевого backoff
	BaseBackoff time.Duration
	// PollInterval страховочный интервал опроса очереди
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	return c
}

// Queue — очередь запросов поверх bolt-хранилища клиента.
type Queue struct {
	db       *bbolt.DB
	exec     Executor
	logger   *slog.Logger
	cfg      Config
	handlers []ResponseHandler

	// wake толкает планировщик при постановке и завершении операций
	wake chan struct{}

	// busy — локальные ключи идентификаторов с операцией в полёте.
	// Пока ключ занят, следующая операция того же идентификатора ждёт.
	mu   sync.Mutex
	busy map[string]struct{}
}

// New создает очередь поверх существующего bolt-хранилища.
func New(st *boltdb.Storage, exec Executor, logger *slog.Logger, cfg Config) (*Queue, error) {
	db := st.DB()
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketQueue)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create queue bucket: %w", err)
	}

	return &Queue{
		db:     db,
		exec:   exec,
		logger: logger,
		cfg:    cfg.withDefaults(),
		wake:   make(chan struct{}, 1),
		busy:   make(map[string]struct{}),
	}, nil
}

// Use добавляет обработчики исходов в конец цепочки. Вызывается до Run.
func (q *Queue) Use(handlers ...ResponseHandler) {
	q.handlers = append(q.handlers, handlers...)
}

// Enqueue сохраняет операцию и присваивает ей порядковый номер.
// Операция будет исполнена планировщиком в порядке номера.
func (q *Queue) Enqueue(ctx context.Context, op *models.QueuedOperation) (uint64, error) {
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = time.Now()
	}
	op.State = models.OpStateQueued

	err := q.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketQueue)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		op.Seq = seq

		data, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("marshal operation: %w", err)
		}
		return b.Put(seqKey(seq), data)
	})
	if err != nil {
		return 0, fmt.Errorf("enqueue operation: %w", err)
	}

	q.logger.Debug("operation enqueued",
		"seq", op.Seq, "kind", op.Kind, "entity_type", op.EntityType, "local_id", op.ID.Local)
	q.signal()
	return op.Seq, nil
}

// Pending возвращает неисполненные операции в порядке номеров.
// Битая запись логируется и пропускается, очередь продолжает жить.
func (q *Queue) Pending(ctx context.Context) ([]models.QueuedOperation, error) {
	var ops []models.QueuedOperation
	err := q.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var op models.QueuedOperation
			if err := json.Unmarshal(v, &op); err != nil {
				q.logger.Error("skipping corrupt queue record", "seq", binary.BigEndian.Uint64(k), "error", err)
				return nil
			}
			ops = append(ops, op)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	return ops, nil
}

// Len возвращает число ожидающих операций.
func (q *Queue) Len(ctx context.Context) (int, error) {
	ops, err := q.Pending(ctx)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

func (q *Queue) put(op *models.QueuedOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	return q.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).Put(seqKey(op.Seq), data)
	})
}

func (q *Queue) delete(seq uint64) error {
	return q.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).Delete(seqKey(seq))
	})
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// seqKey кодирует номер в big-endian: лексикографический порядок ключей
// bolt совпадает с порядком постановки.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
