package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// MongoStorage writes records to a MongoDB collection, one document per record.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	runID      string
	timeout    time.Duration
	now        func() time.Time
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to cfg.URI and pings the server.
func NewMongoStorage(ctx context.Context, cfg *config.MongoConfig, runID string, logger *slog.Logger) (*MongoStorage, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		runID:      runID,
		timeout:    timeout,
		now:        time.Now,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ctx context.Context, records []types.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	docs := recordDocuments(records, s.runID, s.now().UTC())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("insert: %w", err)}
	}

	s.count += len(records)
	s.logger.Debug("records stored in mongodb", "count", len(records), "total", s.count)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// recordDocuments tags every record with the run it came from.
func recordDocuments(records []types.ResultRecord, runID string, crawledAt time.Time) []any {
	docs := make([]any, len(records))
	for i, rec := range records {
		doc := bson.D{
			{Key: "run_id", Value: runID},
			{Key: "crawled_at", Value: crawledAt},
			{Key: "url", Value: rec.URL},
		}
		if rec.Extra != nil {
			doc = append(doc, bson.E{Key: "extra", Value: rec.Extra})
		}
		docs[i] = doc
	}
	return docs
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes records to multiple backends in order.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend and returns the first failure.
func (s *MultiStorage) Store(ctx context.Context, records []types.ResultRecord) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, records); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Location reports the first backend location that is set.
func (s *MultiStorage) Location() string {
	for _, backend := range s.backends {
		if l, ok := backend.(Locator); ok && l.Location() != "" {
			return l.Location()
		}
	}
	return ""
}

func (s *MultiStorage) Close() error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// New builds the storage for a run: the file exporter, fanned out to
// MongoDB when storage.mongo.uri is set.
func New(ctx context.Context, cfg *config.StorageConfig, runID string, logger *slog.Logger) (Storage, error) {
	file, err := NewFileStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Mongo.URI == "" {
		return file, nil
	}

	mongoStore, err := NewMongoStorage(ctx, &cfg.Mongo, runID, logger)
	if err != nil {
		return nil, err
	}
	return NewMultiStorage([]Storage{file, mongoStore}, logger), nil
}
