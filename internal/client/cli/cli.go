// Package cli реализует команды демонстрационного клиента поверх движка
// синхронизации: каталог фильмов с жанрами и персонами.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/iudanet/entsync/internal/catalog"
	"github.com/iudanet/entsync/internal/client/api"
	"github.com/iudanet/entsync/internal/client/auth"
	"github.com/iudanet/entsync/internal/client/coordinator"
	"github.com/iudanet/entsync/internal/client/graph"
	"github.com/iudanet/entsync/internal/client/iocli"
	"github.com/iudanet/entsync/internal/client/queue"
	"github.com/iudanet/entsync/internal/client/storage"
	"github.com/iudanet/entsync/internal/client/storage/boltdb"
	"github.com/iudanet/entsync/internal/client/storage/memory"
	"github.com/iudanet/entsync/internal/client/storage/remote"
	"github.com/iudanet/entsync/internal/clock"
)

// memoryCapacity — ёмкость LRU-слоя на тип сущности
const memoryCapacity = 512

// App связывает движок синхронизации в работающий клиент:
// цепочки слоёв по типам, координаторы, очередь и резолвер графа.
type App struct {
	logger   *slog.Logger
	io       iocli.IO
	store    *boltdb.Storage
	auth     auth.Service
	registry *coordinator.Registry
	queue    *queue.Queue
	resolver *graph.Resolver
}

// NewApp собирает клиента: bolt-хранилище, HTTP API, цепочка
// memory → boltdb → remote на каждый тип каталога.
func NewApp(ctx context.Context, serverURL, dbPath string, logger *slog.Logger, io iocli.IO) (*App, error) {
	store, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	apiClient := api.NewClient(serverURL)
	authSvc := auth.NewService(apiClient, store, logger)

	exec := queue.NewAPIExecutor(apiClient, authSvc, 30*time.Second)
	q, err := queue.New(store, exec, logger, queue.Config{})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open request queue: %w", err)
	}

	descriptors := catalog.Descriptors()
	types := make([]string, 0, len(descriptors))
	for typ := range descriptors {
		types = append(types, typ)
	}
	sort.Strings(types)

	// Общие часы: метки уведомлений сравнимы между типами сущностей
	lamport := clock.New()

	coords := make([]*coordinator.Coordinator, 0, len(types))
	for _, typ := range types {
		desc := descriptors[typ]

		mem, err := memory.New(desc, memoryCapacity)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("memory backend %s: %w", typ, err)
		}

		chain, err := storage.NewChain(logger,
			mem,
			boltdb.NewBackend(store, desc, logger),
			remote.NewBackend(apiClient, authSvc, desc, logger),
		)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("chain %s: %w", typ, err)
		}

		coords = append(coords, coordinator.New(desc, chain, q, logger,
			coordinator.WithClock(lamport)))
	}

	registry, err := coordinator.NewRegistry(coords...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("registry: %w", err)
	}

	// Порядок обработчиков: сначала re-auth (повтор после 401), затем
	// конфликт (терминальный отказ), затем перенос sync-состояния.
	q.Use(
		queue.NewReauthHandler(authSvc, logger),
		queue.NewConflictHandler(logger),
		queue.NewSyncStateHandler(registry, logger),
	)

	return &App{
		logger:   logger,
		io:       io,
		store:    store,
		auth:     authSvc,
		registry: registry,
		queue:    q,
		resolver: graph.New(registry, logger),
	}, nil
}

// Close освобождает ресурсы клиента
func (a *App) Close() error {
	if err := a.registry.Close(); err != nil {
		a.logger.Warn("failed to close coordinators", "error", err)
	}
	return a.store.Close()
}

// PrintUsage выводит справку по командам
func PrintUsage(io iocli.IO) {
	io.Println("Usage: entsync [flags] <command> [arguments]")
	io.Println("")
	io.Println("Commands:")
	io.Println("  register                    Register a new account and log in")
	io.Println("  login                       Log in to the sync server")
	io.Println("  logout                      Remove local credentials")
	io.Println("  status                      Show authentication and queue state")
	io.Println("  add movie|genre|person      Add an entity (see 'add <type> -h')")
	io.Println("  list <type>                 List entities of a type")
	io.Println("  get <type> <id>             Show one entity by local or remote ID")
	io.Println("  delete <type> <id>          Delete an entity")
	io.Println("  resolve <movie-id>          Resolve a movie with its relation graph")
	io.Println("  pending                     Show queued outgoing operations")
	io.Println("  push                        Deliver queued operations to the server")
	io.Println("")
	io.Println("Flags:")
	io.Println("  -server URL                 Sync server URL (default http://localhost:8080)")
	io.Println("  -db PATH                    Local database path (default entsync-client.db)")
}
